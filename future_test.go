package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_SettlesOnce(t *testing.T) {
	f := newFuture()
	assert.False(t, f.Settled())
	r := ErrorResponse()
	assert.True(t, f.resolve(r))
	assert.False(t, f.reject(errors.New("late")))
	assert.False(t, f.resolve(ErrorResponse()))

	got, err := f.Wait()
	require.NoError(t, err)
	assert.Same(t, r, got)
}

func TestFuture_AwaitContext(t *testing.T) {
	f := newFuture()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	go f.reject(ErrTimeout)
	select {
	case <-f.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("future did not settle")
	}
	_, err = f.Await(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}
