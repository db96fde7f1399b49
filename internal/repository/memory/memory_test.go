package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentvault/internal/domain"
	"rentvault/internal/repository"
)

func TestIdentityStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create then get", func(t *testing.T) {
		s := NewIdentityStore()
		require.NoError(t, s.Create(ctx, &domain.Identity{Principal: "alice", Verified: true}))

		got, err := s.GetByPrincipal(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, got.Verified)
	})

	t.Run("create is once per principal", func(t *testing.T) {
		s := NewIdentityStore()
		require.NoError(t, s.Create(ctx, &domain.Identity{Principal: "alice"}))
		assert.ErrorIs(t, s.Create(ctx, &domain.Identity{Principal: "alice"}), repository.ErrDuplicate)
	})

	t.Run("missing principal", func(t *testing.T) {
		s := NewIdentityStore()
		_, err := s.GetByPrincipal(ctx, "nobody")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))

		err = s.Update(ctx, &domain.Identity{Principal: "nobody"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("returned records are detached", func(t *testing.T) {
		s := NewIdentityStore()
		require.NoError(t, s.Create(ctx, &domain.Identity{Principal: "alice"}))

		got, err := s.GetByPrincipal(ctx, "alice")
		require.NoError(t, err)
		got.Verified = true

		again, err := s.GetByPrincipal(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, again.Verified)
	})
}

func TestRentalStore(t *testing.T) {
	ctx := context.Background()

	t.Run("item id is create-once", func(t *testing.T) {
		s := NewRentalStore()
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 1, Seller: "s1", PriceCents: 100}))
		assert.ErrorIs(t, s.Create(ctx, &domain.Rental{ItemID: 1, Seller: "s2", PriceCents: 200}), repository.ErrDuplicate)

		got, err := s.GetByItemID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("s1"), got.Seller)
	})

	t.Run("update requires existing rental", func(t *testing.T) {
		s := NewRentalStore()
		assert.ErrorIs(t, s.Update(ctx, &domain.Rental{ItemID: 9}), repository.ErrNotFound)
	})

	t.Run("list by seller filters status and paginates", func(t *testing.T) {
		s := NewRentalStore()
		buyer := domain.Principal("b1")
		for i := int64(1); i <= 5; i++ {
			r := &domain.Rental{ItemID: i, Seller: "s1", PriceCents: 100}
			if i%2 == 0 {
				r.Buyer = &buyer
				r.Paid = true
			}
			require.NoError(t, s.Create(ctx, r))
		}
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 10, Seller: "s2", PriceCents: 100}))

		all, total, err := s.ListBySeller(ctx, "s1", "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(5), total)
		assert.Len(t, all, 5)
		assert.Equal(t, int64(1), all[0].ItemID)

		paid, total, err := s.ListBySeller(ctx, "s1", string(domain.RentalStatusPaid), 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(2), total)
		assert.Len(t, paid, 2)

		page2, total, err := s.ListBySeller(ctx, "s1", "", 2, 2)
		require.NoError(t, err)
		assert.Equal(t, int32(5), total)
		require.Len(t, page2, 2)
		assert.Equal(t, int64(3), page2[0].ItemID)

		empty, _, err := s.ListBySeller(ctx, "s1", "", 4, 2)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("list by buyer matches only the set buyer", func(t *testing.T) {
		s := NewRentalStore()
		buyer := domain.Principal("b1")
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 1, Seller: "s1", Buyer: &buyer, Paid: true}))
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 2, Seller: "s1"}))

		got, total, err := s.ListByBuyer(ctx, "b1", "", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, got, 1)
		assert.Equal(t, int64(1), got[0].ItemID)
	})

	t.Run("list disputed", func(t *testing.T) {
		s := NewRentalStore()
		buyer := domain.Principal("b1")
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 1, Seller: "s1", Buyer: &buyer, Paid: true, Disputed: true}))
		require.NoError(t, s.Create(ctx, &domain.Rental{ItemID: 2, Seller: "s1"}))

		disputed, err := s.ListDisputed(ctx)
		require.NoError(t, err)
		require.Len(t, disputed, 1)
		assert.Equal(t, int64(1), disputed[0].ItemID)
	})
}

func TestEventStore(t *testing.T) {
	ctx := context.Background()

	t.Run("append keeps emission order", func(t *testing.T) {
		s := NewEventStore()
		for i := 0; i < 4; i++ {
			require.NoError(t, s.Append(ctx, &domain.Event{
				ID:     uuid.New(),
				Type:   domain.EventRentalCreated,
				ItemID: int64(i + 1),
			}))
		}

		events, total, err := s.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(4), total)
		require.Len(t, events, 4)
		for i, e := range events {
			assert.Equal(t, int64(i+1), e.ItemID, fmt.Sprintf("event %d out of order", i))
		}
	})

	t.Run("limit and offset window the log", func(t *testing.T) {
		s := NewEventStore()
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Append(ctx, &domain.Event{ID: uuid.New(), ItemID: int64(i + 1)}))
		}

		window, total, err := s.List(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int32(5), total)
		require.Len(t, window, 2)
		assert.Equal(t, int64(2), window[0].ItemID)
		assert.Equal(t, int64(3), window[1].ItemID)
	})

	t.Run("list by item", func(t *testing.T) {
		s := NewEventStore()
		require.NoError(t, s.Append(ctx, &domain.Event{ID: uuid.New(), Type: domain.EventRentalCreated, ItemID: 1}))
		require.NoError(t, s.Append(ctx, &domain.Event{ID: uuid.New(), Type: domain.EventRentalCreated, ItemID: 2}))
		require.NoError(t, s.Append(ctx, &domain.Event{ID: uuid.New(), Type: domain.EventRentalPaid, ItemID: 1}))

		events, err := s.ListByItem(ctx, 1)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, domain.EventRentalCreated, events[0].Type)
		assert.Equal(t, domain.EventRentalPaid, events[1].Type)
	})
}
