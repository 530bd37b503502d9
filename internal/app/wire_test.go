package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunermason/SC/internal/app"
	"github.com/tunermason/SC/internal/domain"
	"github.com/tunermason/SC/internal/services/contacts"
	"github.com/tunermason/SC/internal/store"
)

func TestWire_OpenRequiresIdentity(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.Home = t.TempDir()
	w, err := app.NewWire(cfg)
	require.NoError(t, err)

	_, err = w.Open("", app.Hooks{})
	require.ErrorIs(t, err, store.ErrNoDatabase)

	id, _, err := w.Identity.GenerateIdentity("")
	require.NoError(t, err)

	rt, err := w.Open("", app.Hooks{})
	require.NoError(t, err)
	assert.Equal(t, id.PublicKey, rt.Self.PublicKey)
	assert.Nil(t, rt.Calls.Current())

	_, err = rt.Contacts.Add(domain.Contact{Name: "alice", PublicKey: domain.PublicKey{7}, Addresses: []string{"10.0.0.7"}})
	require.NoError(t, err)
	c, err := rt.ResolveContact("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.7:10001"}, rt.Resolver.Candidates(c, false))

	_, err = rt.ResolveContact("nobody")
	assert.ErrorIs(t, err, contacts.ErrUnknownContact)
}
