package codemod_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/leapstack-labs/boxwind/internal/codemod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	root := writeFiles(t, map[string]string{"src/.keep": ""})
	path := filepath.Join(root, "src", "card.tsx")

	var (
		mu    sync.Mutex
		total int
	)
	r := newRunner(t, codemod.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- r.Watch(ctx, codemod.WatchOptions{
			Root: root,
			OnRun: func(s *codemod.Summary) {
				mu.Lock()
				total += s.Elements()
				mu.Unlock()
			},
		})
	}()

	// Give the watcher time to register its directories.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(cardSrc), 0o600))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == cardWant
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, total)
}
