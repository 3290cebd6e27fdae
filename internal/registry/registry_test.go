package registry

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(nil)
	require.NoError(t, err)
	return r
}

func TestMintAndOwnerOf(t *testing.T) {
	r := newRegistry(t)
	owner := uuid.New()

	require.NoError(t, r.Mint(1, owner))
	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, owner, got)
}

func TestOwnerOfUnminted(t *testing.T) {
	r := newRegistry(t)
	_, err := r.OwnerOf(7)
	assert.ErrorIs(t, err, ErrNotMinted)
}

func TestDoubleMint(t *testing.T) {
	r := newRegistry(t)
	owner := uuid.New()

	require.NoError(t, r.Mint(1, owner))
	err := r.Mint(1, uuid.New())
	require.ErrorIs(t, err, ErrAlreadyMinted)

	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, owner, got, "original owner survives a rejected mint")
}

func TestTransfer(t *testing.T) {
	r := newRegistry(t)
	from := uuid.New()
	to := uuid.New()
	require.NoError(t, r.Mint(1, from))

	// Only the current owner can transfer.
	assert.Error(t, r.Transfer(1, to, from))
	assert.ErrorIs(t, r.Transfer(2, from, to), ErrNotMinted)

	require.NoError(t, r.Transfer(1, from, to))
	got, err := r.OwnerOf(1)
	require.NoError(t, err)
	assert.Equal(t, to, got)
}
