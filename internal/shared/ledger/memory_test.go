package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCommitAppliesWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, tx.Set(ctx, "k", []byte("v1")))

	// escrita ainda não commitada não vaza pra outra transação
	other, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	_, found, err := other.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, other.Rollback(ctx))

	require.NoError(t, tx.Commit(ctx))

	after, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	v, found, err := after.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("v1"), v)
}

func TestMemoryRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, tx.Set(ctx, "k", []byte("v1")))
	require.NoError(t, tx.Rollback(ctx))

	after, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	_, found, err := after.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryTxReadsOwnWritesAndRemoves(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	seed, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, seed.Set(ctx, "k", []byte("old")))
	require.NoError(t, seed.Commit(ctx))

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)

	v, found, err := tx.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("old"), v)

	require.NoError(t, tx.Set(ctx, "k", []byte("new")))
	v, found, err = tx.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("new"), v)

	require.NoError(t, tx.Remove(ctx, "k"))
	_, found, err = tx.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// remove seguido de set reescreve a chave
	require.NoError(t, tx.Set(ctx, "k", []byte("again")))
	require.NoError(t, tx.Commit(ctx))

	after, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	v, found, err = after.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("again"), v)
}

func TestMemoryRemoveCommitsDeletion(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	seed, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, seed.Set(ctx, "k", []byte("v")))
	require.NoError(t, seed.Commit(ctx))

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, tx.Remove(ctx, "k"))
	require.NoError(t, tx.Commit(ctx))

	after, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	_, found, err := after.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryContractsAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx, err := store.Begin(ctx, "house")
	require.NoError(t, err)
	require.NoError(t, tx.Set(ctx, "config", []byte("h")))
	require.NoError(t, tx.Commit(ctx))

	other, err := store.Begin(ctx, "table")
	require.NoError(t, err)
	_, found, err := other.Get(ctx, "config")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryFinishedTxRejectsFurtherUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Error(t, tx.Set(ctx, "k", []byte("v")))
	assert.Error(t, tx.Commit(ctx))
	// rollback em defer depois do commit é rotina normal, não erro
	assert.NoError(t, tx.Rollback(ctx))
}

func TestLoadSaveJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	type rec struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	tx, err := store.Begin(ctx, "ct")
	require.NoError(t, err)

	var missing rec
	found, err := LoadJSON(ctx, tx, "r", &missing)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SaveJSON(ctx, tx, "r", rec{Name: "x", Count: 3}))
	var got rec
	found, err = LoadJSON(ctx, tx, "r", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, rec{Name: "x", Count: 3}, got)
}
