package logging

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseConcurrentFirstUse(t *testing.T) {
	const n = 16
	got := make([]*slog.Logger, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = Base()
		}(i)
	}
	wg.Wait()

	require.NotNil(t, got[0])
	for _, l := range got {
		assert.Same(t, got[0], l)
	}
	// later Init calls keep the first logger
	assert.Same(t, got[0], Init(Options{Component: "other", Level: "debug"}))
}

func TestFromCtxFallsBackToBase(t *testing.T) {
	assert.Same(t, Base(), FromCtx(context.Background()))

	l := Base().With("req_id", "r1")
	assert.Same(t, l, FromCtx(WithCtx(context.Background(), l)))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
