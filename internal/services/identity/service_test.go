package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/crypto"
	"github.com/tunermason/SC/internal/services/identity"
	"github.com/tunermason/SC/internal/store"
)

const strongPass = "Correct-Horse-42"

func TestGenerateThenLoad(t *testing.T) {
	st := store.NewDatabaseFileStore(t.TempDir())
	svc := identity.New(st)

	id, fp, err := svc.GenerateIdentity(strongPass)
	require.NoError(t, err)
	assert.True(t, crypto.ValidIdentity(id))

	loaded, err := svc.LoadIdentity(strongPass)
	require.NoError(t, err)
	assert.Equal(t, id, loaded)

	got, err := svc.FingerprintIdentity(strongPass)
	require.NoError(t, err)
	assert.Equal(t, fp, got)

	_, err = svc.LoadIdentity("Wrong-Horse-42")
	assert.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestWeakPassphraseRejected(t *testing.T) {
	svc := identity.New(store.NewDatabaseFileStore(t.TempDir()))
	_, _, err := svc.GenerateIdentity("password")
	assert.ErrorIs(t, err, identity.ErrWeakPassphrase)
}

func TestEmptyPassphraseAndMissingIdentity(t *testing.T) {
	st := store.NewDatabaseFileStore(t.TempDir())
	svc := identity.New(st)

	_, err := svc.LoadIdentity("")
	assert.ErrorIs(t, err, store.ErrNoDatabase)

	_, _, err = svc.GenerateIdentity("")
	require.NoError(t, err)
	_, err = svc.LoadIdentity("")
	assert.NoError(t, err)
}
