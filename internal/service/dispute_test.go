package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentvault/internal/domain"
)

func seedDisputedRental(t *testing.T, f *fixture, seller, buyer domain.Principal, itemID, price int64) *domain.Rental {
	t.Helper()
	seedPaidRental(t, f, seller, buyer, itemID, price)
	rental, err := f.rentals.RaiseDispute(f.ctx, buyer, itemID)
	require.NoError(t, err)
	return rental
}

func TestResolveDispute(t *testing.T) {
	t.Run("ForSeller", func(t *testing.T) {
		f := newFixture()
		rental := seedDisputedRental(t, f, "seller", "buyer", 1, 1500)

		resolved, err := f.disputes.ResolveDispute(f.ctx, admin, 1, true)
		require.NoError(t, err)
		assert.False(t, resolved.Disputed)
		assert.True(t, resolved.Confirmed)
		assert.True(t, resolved.Paid)
		assert.Equal(t, domain.RentalStatusConfirmed, resolved.Status())

		// Escrow paid out to the seller.
		assert.Equal(t, int64(1500), f.vault.BalanceOf("seller"))
		assert.Equal(t, int64(0), f.vault.BalanceOf("buyer"))
		assert.Equal(t, int64(0), f.vault.TotalHeld())

		// Settlement moves money only; the asset token was never handed over.
		owner, err := f.mint.AssetOwner(rental.AssetTokenID)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("seller"), owner)

		events, err := f.events.EventsForItem(f.ctx, 1)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, domain.EventRentalResolved, last.Type)
		require.NotNil(t, last.Decision)
		assert.True(t, *last.Decision)
	})

	t.Run("ForBuyer", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 1500)

		resolved, err := f.disputes.ResolveDispute(f.ctx, admin, 1, false)
		require.NoError(t, err)
		assert.False(t, resolved.Disputed)
		assert.False(t, resolved.Paid)
		assert.False(t, resolved.Confirmed)
		assert.Equal(t, domain.RentalStatusRefunded, resolved.Status())

		assert.Equal(t, int64(1500), f.vault.BalanceOf("buyer"))
		assert.Equal(t, int64(0), f.vault.BalanceOf("seller"))
		assert.Equal(t, int64(0), f.vault.TotalHeld())

		events, err := f.events.EventsForItem(f.ctx, 1)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, domain.EventRentalResolved, last.Type)
		require.NotNil(t, last.Decision)
		assert.False(t, *last.Decision)
	})

	t.Run("BuyerWinStaysTerminal", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 1500)
		_, err := f.disputes.ResolveDispute(f.ctx, admin, 1, false)
		require.NoError(t, err)

		// The refunded slot accepts no further activity.
		_, err = f.rentals.ConfirmReceipt(f.ctx, "buyer", 1)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
		_, err = f.rentals.RentItem(f.ctx, "buyer", 1, 1500)
		assert.Equal(t, domain.CodeInvalidState, domain.CodeOf(err))
	})

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 1500)

		_, err := f.disputes.ResolveDispute(f.ctx, "buyer", 1, false)
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
		_, err = f.disputes.ResolveDispute(f.ctx, "seller", 1, true)
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))

		// Funds untouched.
		held, ok := f.vault.Held(1)
		assert.True(t, ok)
		assert.Equal(t, int64(1500), held)
	})

	t.Run("NoDispute", func(t *testing.T) {
		f := newFixture()
		seedPaidRental(t, f, "seller", "buyer", 1, 1500)

		_, err := f.disputes.ResolveDispute(f.ctx, admin, 1, true)
		assert.Equal(t, domain.CodeNoDispute, domain.CodeOf(err))
	})

	t.Run("UnknownItem", func(t *testing.T) {
		f := newFixture()
		_, err := f.disputes.ResolveDispute(f.ctx, admin, 42, true)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("SecondResolve", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 1500)
		_, err := f.disputes.ResolveDispute(f.ctx, admin, 1, true)
		require.NoError(t, err)

		_, err = f.disputes.ResolveDispute(f.ctx, admin, 1, false)
		assert.Equal(t, domain.CodeNoDispute, domain.CodeOf(err))

		// The single payout stands.
		assert.Equal(t, int64(1500), f.vault.BalanceOf("seller"))
	})

	t.Run("ReleaseFailureKeepsDisputeOpen", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 1500)

		led := new(MockLedger)
		led.On("Release", mock.Anything, int64(1), domain.Principal("seller")).Return(int64(0), errors.New("ledger offline"))
		disputes := NewDisputeService(f.gate, f.store.Rentals, led, f.events, nil, admin)

		_, err := disputes.ResolveDispute(f.ctx, admin, 1, true)
		require.Error(t, err)
		assert.Equal(t, domain.CodeInternal, domain.CodeOf(err))

		// Still open for a retry.
		got, err := f.rentals.GetRental(f.ctx, 1)
		require.NoError(t, err)
		assert.True(t, got.Disputed)
		assert.False(t, got.Confirmed)

		led.AssertExpectations(t)
	})
}

func TestListOpenDisputes(t *testing.T) {
	t.Run("AdminSeesOpenOnes", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 100)
		seedPaidRental(t, f, "seller", "buyer", 2, 200)
		seedDisputedRental(t, f, "seller", "buyer", 3, 300)

		open, err := f.disputes.ListOpenDisputes(f.ctx, admin)
		require.NoError(t, err)
		require.Len(t, open, 2)
		assert.Equal(t, int64(1), open[0].ItemID)
		assert.Equal(t, int64(3), open[1].ItemID)
	})

	t.Run("ResolvedOnesDropOut", func(t *testing.T) {
		f := newFixture()
		seedDisputedRental(t, f, "seller", "buyer", 1, 100)
		_, err := f.disputes.ResolveDispute(f.ctx, admin, 1, false)
		require.NoError(t, err)

		open, err := f.disputes.ListOpenDisputes(f.ctx, admin)
		require.NoError(t, err)
		assert.Empty(t, open)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture()
		_, err := f.disputes.ListOpenDisputes(f.ctx, "buyer")
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
	})
}
