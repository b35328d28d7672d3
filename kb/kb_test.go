package kb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func newTestStore(t *testing.T) (*Store, string, string) {
	t.Helper()

	frameDir := t.TempDir()
	feDir := t.TempDir()

	writeRule(t, frameDir, "ingestion.pl", "frame_related(X, 'Ingestion') :- eat(X).\n")
	writeRule(t, feDir, "ingestor.pl", "frame_element(X, 'Ingestor', 'Ingestion') :- agent(_, X).\n")

	store, err := NewStore(StoreConfig{FrameDir: frameDir, FEDir: feDir})
	require.NoError(t, err)

	return store, frameDir, feDir
}

func TestStore_SnapshotListsRuleFiles(t *testing.T) {
	store, frameDir, _ := newTestStore(t)

	// Non-rule files are ignored.
	writeRule(t, frameDir, "notes.txt", "not a rule file\n")

	require.NoError(t, store.Reload())

	snap := store.Snapshot()
	require.Equal(t, uint64(1), snap.Generation)
	require.Len(t, snap.FrameRules, 1)
	require.Len(t, snap.FERules, 1)
	require.Len(t, snap.Files(), 2)
}

func TestStore_TheoryFirstInFiles(t *testing.T) {
	frameDir := t.TempDir()
	feDir := t.TempDir()
	theoryDir := t.TempDir()

	writeRule(t, frameDir, "f.pl", "")
	writeRule(t, feDir, "e.pl", "")
	theory := writeRule(t, theoryDir, "base.pl", "")

	store, err := NewStore(StoreConfig{FrameDir: frameDir, FEDir: feDir, TheoryDir: theoryDir})
	require.NoError(t, err)

	files := store.Snapshot().Files()
	require.Len(t, files, 3)
	require.Equal(t, theory, files[0])
}

func TestStore_MissingDirFails(t *testing.T) {
	_, err := NewStore(StoreConfig{
		FrameDir: filepath.Join(t.TempDir(), "absent"),
		FEDir:    t.TempDir(),
	})
	require.Error(t, err)
}

func TestWatcher_ReloadsOnRuleChange(t *testing.T) {
	store, frameDir, _ := newTestStore(t)

	w, err := NewWatcher(WatcherConfig{Store: store, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))

	writeRule(t, frameDir, "motion.pl", "frame_related(X, 'Motion') :- move(X).\n")

	select {
	case generation := <-w.Reloads():
		require.Greater(t, generation, uint64(0))
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	require.Len(t, store.Snapshot().FrameRules, 2)
}

func TestWatcher_IgnoresNonRuleFiles(t *testing.T) {
	store, frameDir, _ := newTestStore(t)

	w, err := NewWatcher(WatcherConfig{Store: store, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))

	writeRule(t, frameDir, "scratch.tmp", "ignored\n")

	select {
	case <-w.Reloads():
		t.Fatal("unexpected reload for non-rule file")
	case <-time.After(200 * time.Millisecond):
	}
}
