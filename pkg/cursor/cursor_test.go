package cursor

import (
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovnanova/aeon/pkg/log"
)

func init() {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
}

func TestStoreMissingCursor(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	pos := time.Now().UnixMicro()
	require.NoError(t, store.Save(pos))
	require.NoError(t, store.Close())

	// Survives a restart
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, found, err := reopened.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, pos, got)
}

func TestStoreOverwrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(100))
	require.NoError(t, store.Save(200))

	got, found, err := store.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(200), got)
}

type fakeSource struct {
	pos atomic.Int64
}

func (f *fakeSource) Cursor() int64 {
	return f.pos.Load()
}

func TestSaverFinalSaveOnStop(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	src := &fakeSource{}
	src.pos.Store(12345)

	// Long interval: only the final save on Stop can fire
	saver := NewSaver(store, src, time.Hour)
	saver.Start()
	saver.Stop()

	got, found, err := store.Load()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(12345), got)
}

func TestSaverSkipsZeroPosition(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	saver := NewSaver(store, &fakeSource{}, time.Hour)
	saver.Start()
	saver.Stop()

	_, found, err := store.Load()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSaverPeriodicSave(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	src := &fakeSource{}
	src.pos.Store(777)

	saver := NewSaver(store, src, 10*time.Millisecond)
	saver.Start()

	assert.Eventually(t, func() bool {
		got, found, err := store.Load()
		return err == nil && found && got == 777
	}, time.Second, 5*time.Millisecond)

	saver.Stop()
}
