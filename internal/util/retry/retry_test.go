package retry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStale = errors.New("object was modified")

func TestDo_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesOnceByDefault(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return errStale
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_GivesUpAfterRetries(t *testing.T) {
	t.Parallel()
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return errStale
	}, WithMaxRetries(1))

	require.Error(t, err)
	assert.ErrorIs(t, err, errStale)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	t.Parallel()
	rejected := errors.New("field is immutable")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return Fatal(rejected)
	}, WithMaxRetries(3))

	require.Error(t, err)
	assert.Equal(t, rejected, err, "fatal errors are returned unwrapped")
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetry(t *testing.T) {
	t.Parallel()
	var retries []int
	_ = Do(context.Background(), func() error {
		return errStale
	}, WithMaxRetries(2), WithOnRetry(func(attempt int, err error) {
		assert.ErrorIs(t, err, errStale)
		retries = append(retries, attempt)
	}))

	assert.Equal(t, []int{1, 2}, retries)
}

func TestDo_CancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func() error {
		calls++
		cancel()
		return errStale
	}, WithMaxRetries(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestFatal_Nil(t *testing.T) {
	t.Parallel()
	assert.NoError(t, Fatal(nil))
}
