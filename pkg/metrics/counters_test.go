package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIncDec(t *testing.T) {
	store, err := NewCounterStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Inc("mnrv"))

	count, err := store.Get("fklr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, store.Dec("fklr"))
	count, err = store.Get("fklr")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCounterFloorAtZero(t *testing.T) {
	store, err := NewCounterStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	// Decrementing an absent counter never goes negative
	require.NoError(t, store.Dec("fklr"))
	count, err := store.Get("fklr")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Dec("fklr"))
	require.NoError(t, store.Dec("fklr"))
	count, err = store.Get("fklr")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCounterGetUnknown(t *testing.T) {
	store, err := NewCounterStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Get("none")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestCounterPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := NewCounterStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Close())

	reopened, err := NewCounterStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Get("fklr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestCounterAllAndReset(t *testing.T) {
	store, err := NewCounterStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Inc("fklr"))
	require.NoError(t, store.Inc("mnrv"))

	counts, err := store.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"fklr": 1, "mnrv": 1}, counts)

	require.NoError(t, store.Reset())

	counts, err = store.All()
	require.NoError(t, err)
	assert.Empty(t, counts)
}
