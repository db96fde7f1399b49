package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentvault/internal/domain"
	"rentvault/internal/utils"
)

// SendGridNotifier emails dispute notices to the administrator.
type SendGridNotifier struct {
	apiKey     string
	fromEmail  string
	fromName   string
	adminEmail string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName, adminEmail string) *SendGridNotifier {
	return &SendGridNotifier{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		adminEmail: adminEmail,
	}
}

func (n *SendGridNotifier) DisputeAlert(ctx context.Context, itemID int64, raisedBy domain.Principal, heldCents int64) error {
	held := utils.FormatCents(heldCents)
	subject := fmt.Sprintf("Dispute raised on rental %d", itemID)
	plainText := fmt.Sprintf("%s raised a dispute on rental %d. %s stays in escrow until you resolve it.", raisedBy, itemID, held)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Dispute Raised</h2>
				<p><strong>%s</strong> raised a dispute on rental <strong>%d</strong>.</p>
				<p><strong>%s</strong> stays in escrow until you resolve it.</p>
			</body>
		</html>
	`, raisedBy, itemID, held)

	return n.send(subject, plainText, htmlContent)
}

func (n *SendGridNotifier) DisputeReminder(ctx context.Context, itemID int64, openFor time.Duration, heldCents int64) error {
	open := openFor.Round(time.Minute)
	held := utils.FormatCents(heldCents)
	subject := fmt.Sprintf("Dispute on rental %d still open", itemID)
	plainText := fmt.Sprintf("The dispute on rental %d has been open for %s with %s in escrow. It is waiting on a decision.", itemID, open, held)
	htmlContent := fmt.Sprintf(`
		<html>
			<body>
				<h2>Dispute Reminder</h2>
				<p>The dispute on rental <strong>%d</strong> has been open for %s with <strong>%s</strong> in escrow.</p>
				<p>It is waiting on a decision.</p>
			</body>
		</html>
	`, itemID, open, held)

	return n.send(subject, plainText, htmlContent)
}

func (n *SendGridNotifier) send(subject, plainText, htmlContent string) error {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	recipient := mail.NewEmail("Marketplace Admin", n.adminEmail)

	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
