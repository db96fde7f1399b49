package notify

import (
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type DisputeMailer struct {
	apiKey     string
	fromEmail  string
	fromName   string
	adminEmail string
}

func NewDisputeMailer(apiKey, fromEmail, fromName, adminEmail string) *DisputeMailer {
	return &DisputeMailer{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		adminEmail: adminEmail,
	}
}

func (m *DisputeMailer) SendDisputeAlert(itemID int64, raisedBy string) error {
	subject := fmt.Sprintf("Dispute opened on item %d", itemID)
	plainText := fmt.Sprintf("%s opened a dispute on item %d. The escrow stays locked until an arbiter resolves it.", raisedBy, itemID)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Dispute Opened</h2>
				<p><strong>%s</strong> opened a dispute on item <strong>%d</strong>.</p>
				<p>The escrow stays locked until an arbiter resolves it.</p>
			</body>
		</html>
	`, raisedBy, itemID)

	return m.send(subject, plainText, htmlContent)
}

func (m *DisputeMailer) SendDisputeReminder(itemID int64, openFor time.Duration) error {
	subject := fmt.Sprintf("Dispute on item %d still open", itemID)
	plainText := fmt.Sprintf("The dispute on item %d has been open for %s.", itemID, openFor.Round(time.Hour))
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Dispute Still Open</h2>
				<p>The dispute on item <strong>%d</strong> has been open for <strong>%s</strong>.</p>
			</body>
		</html>
	`, itemID, openFor.Round(time.Hour))

	return m.send(subject, plainText, htmlContent)
}

func (m *DisputeMailer) send(subject, plainText, htmlContent string) error {
	from := mail.NewEmail(m.fromName, m.fromEmail)
	recipient := mail.NewEmail("Arbiter", m.adminEmail)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(m.apiKey)
	response, err := client.Send(message)

	if err != nil {
		return fmt.Errorf("failed to send dispute mail: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}

/*
Also considered a webhook POST to an arbiter dashboard. Email wins for now
because the arbiter is a single operator without a dashboard; revisit if the
arbiter role ever becomes a rotation.

// Usage:
mailer := notify.NewDisputeMailer(
	os.Getenv("SENDGRID_API_KEY"),
	"noreply@rentvault.dev",
	"RentVault",
	"arbiter@rentvault.dev",
)
*/
