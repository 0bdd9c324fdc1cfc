package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForEachPreservesInputOrder(t *testing.T) {
	keys := make([]string, 50)
	for i := range keys {
		keys[i] = fmt.Sprintf("sku-%02d", i)
	}

	results := ForEach(context.Background(), keys, 8, func(_ context.Context, key string) (string, error) {
		return strings.ToUpper(key), nil
	})

	require.Len(t, results, 50)
	for i, res := range results {
		assert.Equal(t, keys[i], res.Key)
		assert.Equal(t, strings.ToUpper(keys[i]), res.Value)
		assert.NoError(t, res.Err)
	}
}

func TestForEachIsolatesFailures(t *testing.T) {
	keys := []string{"ok-1", "bad", "ok-2"}
	wantErr := errors.New("boom")

	results := ForEach(context.Background(), keys, 2, func(_ context.Context, key string) (int, error) {
		if key == "bad" {
			return 0, wantErr
		}
		return 1, nil
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, wantErr)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, results[2].Value)
}

func TestForEachRecoversPanics(t *testing.T) {
	results := ForEach(context.Background(), []string{"a", "b"}, 2, func(_ context.Context, key string) (int, error) {
		if key == "b" {
			panic("unexpected state")
		}
		return 7, nil
	})

	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Err.Error(), "unexpected state")
}

func TestForEachRespectsWorkerLimit(t *testing.T) {
	var current, peak int64
	keys := make([]string, 32)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
	}

	ForEach(context.Background(), keys, 4, func(_ context.Context, _ string) (struct{}, error) {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		atomic.AddInt64(&current, -1)
		return struct{}{}, nil
	})

	assert.LessOrEqual(t, peak, int64(4))
}

func TestForEachEmptyKeys(t *testing.T) {
	results := ForEach(context.Background(), nil, 4, func(_ context.Context, _ string) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	})
	assert.Empty(t, results)
}
