package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentvault/internal/domain"
)

func TestSubmitIdentity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture()

		identity, err := f.identity.SubmitIdentity(f.ctx, "alice")
		require.NoError(t, err)
		assert.True(t, identity.Verified)
		assert.Nil(t, identity.CredentialTokenID)
		assert.Nil(t, identity.ApprovedBy)
		assert.False(t, identity.VerifiedOn.IsZero())

		assert.True(t, f.identity.IsVerified(f.ctx, "alice"))

		events, _, err := f.events.Events(f.ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventIdentityVerified, events[0].Type)
		assert.Equal(t, domain.Principal("alice"), events[0].Principal)
		assert.Nil(t, events[0].TokenID)
	})

	t.Run("AlreadyVerified", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.SubmitIdentity(f.ctx, "alice")
		require.NoError(t, err)

		_, err = f.identity.SubmitIdentity(f.ctx, "alice")
		assert.Equal(t, domain.CodeAlreadyVerified, domain.CodeOf(err))
	})

	t.Run("EmptyPrincipal", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.SubmitIdentity(f.ctx, "")
		assert.Equal(t, domain.CodeInvalidArgument, domain.CodeOf(err))
	})
}

func TestApproveIdentity(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture()

		identity, err := f.identity.ApproveIdentity(f.ctx, admin, "bob")
		require.NoError(t, err)
		assert.True(t, identity.Verified)
		require.NotNil(t, identity.CredentialTokenID)
		assert.Equal(t, int64(1), *identity.CredentialTokenID)
		require.NotNil(t, identity.ApprovedBy)
		assert.Equal(t, admin, *identity.ApprovedBy)

		// The stored receipt verifies against the marketplace signer and
		// binds the subject to the minted credential.
		claims, err := f.signer.VerifyReceipt(identity.CredentialReceipt)
		require.NoError(t, err)
		assert.Equal(t, "bob", claims.Principal)
		assert.Equal(t, int64(1), claims.TokenID)

		owner, err := f.mint.CredentialOwner(1)
		require.NoError(t, err)
		assert.Equal(t, domain.Principal("bob"), owner)

		events, _, err := f.events.Events(f.ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventIdentityVerified, events[0].Type)
		require.NotNil(t, events[0].TokenID)
		assert.Equal(t, int64(1), *events[0].TokenID)
	})

	t.Run("CredentialIDsAdvance", func(t *testing.T) {
		f := newFixture()

		first, err := f.identity.ApproveIdentity(f.ctx, admin, "bob")
		require.NoError(t, err)
		second, err := f.identity.ApproveIdentity(f.ctx, admin, "carol")
		require.NoError(t, err)

		assert.Equal(t, int64(1), *first.CredentialTokenID)
		assert.Equal(t, int64(2), *second.CredentialTokenID)
	})

	t.Run("NonAdmin", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.ApproveIdentity(f.ctx, "mallory", "bob")
		assert.Equal(t, domain.CodeUnauthorized, domain.CodeOf(err))
		assert.False(t, f.identity.IsVerified(f.ctx, "bob"))
	})

	t.Run("AlreadyVerifiedBySelf", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.SubmitIdentity(f.ctx, "bob")
		require.NoError(t, err)

		_, err = f.identity.ApproveIdentity(f.ctx, admin, "bob")
		assert.Equal(t, domain.CodeAlreadyVerified, domain.CodeOf(err))
	})

	t.Run("AlreadyApproved", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.ApproveIdentity(f.ctx, admin, "bob")
		require.NoError(t, err)

		_, err = f.identity.ApproveIdentity(f.ctx, admin, "bob")
		assert.Equal(t, domain.CodeAlreadyVerified, domain.CodeOf(err))
	})

	t.Run("EmptySubject", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.ApproveIdentity(f.ctx, admin, "")
		assert.Equal(t, domain.CodeInvalidArgument, domain.CodeOf(err))
	})
}

func TestIdentityQueries(t *testing.T) {
	t.Run("IsVerifiedUnknownPrincipal", func(t *testing.T) {
		f := newFixture()
		assert.False(t, f.identity.IsVerified(f.ctx, "ghost"))
	})

	t.Run("GetIdentityUnknown", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.GetIdentity(f.ctx, "ghost")
		assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
	})

	t.Run("GetIdentityReturnsRecord", func(t *testing.T) {
		f := newFixture()
		_, err := f.identity.ApproveIdentity(f.ctx, admin, "bob")
		require.NoError(t, err)

		identity, err := f.identity.GetIdentity(f.ctx, "bob")
		require.NoError(t, err)
		assert.True(t, identity.Verified)
		require.NotNil(t, identity.CredentialTokenID)
	})
}
