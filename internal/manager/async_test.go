package manager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatch_Success(t *testing.T) {
	done := make(chan string, 1)
	dispatch(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	}, func(result int, msg string) {
		assert.Equal(t, 42, result)
		done <- msg
	})
	assert.Empty(t, <-done)
}

func TestDispatch_Error(t *testing.T) {
	done := make(chan string, 1)
	dispatch(context.Background(), func(context.Context) (*int, error) {
		v := 1
		return &v, errors.New("boom")
	}, func(result *int, msg string) {
		assert.Nil(t, result, "result must be zero on error")
		done <- msg
	})
	assert.Equal(t, "boom", <-done)
}

func TestDispatch_PanicBecomesMessage(t *testing.T) {
	done := make(chan string, 2)
	dispatch(context.Background(), func(context.Context) ([]int, error) {
		panic("nil map")
	}, func(result []int, msg string) {
		assert.Nil(t, result)
		done <- msg
	})
	assert.Equal(t, "internal error: nil map", <-done)
	assert.Len(t, done, 0)
}

func TestDispatch_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan string, 1)
	dispatch(ctx, func(ctx context.Context) (int, error) {
		return 0, ctx.Err()
	}, func(_ int, msg string) { done <- msg })
	assert.Equal(t, context.Canceled.Error(), <-done)
}

func TestLatest(t *testing.T) {
	var l Latest
	first := l.Begin()
	assert.True(t, l.IsCurrent(first))

	second := l.Begin()
	assert.False(t, l.IsCurrent(first))
	assert.True(t, l.IsCurrent(second))
}

func TestLatest_Concurrent(t *testing.T) {
	var l Latest
	var wg sync.WaitGroup
	tokens := make(chan Token, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- l.Begin()
		}()
	}
	wg.Wait()
	close(tokens)

	current := 0
	seen := map[Token]bool{}
	for tok := range tokens {
		assert.False(t, seen[tok], "tokens must be unique")
		seen[tok] = true
		if l.IsCurrent(tok) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}
