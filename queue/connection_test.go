package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		delay   time.Duration
		ok      bool
	}{
		{1, 100 * time.Millisecond, true},
		{2, 200 * time.Millisecond, true},
		{3, 300 * time.Millisecond, true},
		{0, 0, false},
		{-1, 0, false},
		{4, 0, false},
	}

	for _, tt := range tests {
		delay, ok := Backoff(tt.attempt)
		assert.Equal(t, tt.ok, ok, "attempt %d", tt.attempt)
		assert.Equal(t, tt.delay, delay, "attempt %d", tt.attempt)
	}
}

func TestBackoffCap(t *testing.T) {
	// Every permitted attempt stays at or under the cap.
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		delay, ok := Backoff(attempt)
		require.True(t, ok)
		assert.LessOrEqual(t, delay, backoffCap)
	}
}

func TestConnectInMemory(t *testing.T) {
	conn, err := Connect("", true)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.NoError(t, conn.Close())
}

func TestConnectBadPath(t *testing.T) {
	// A file (not a directory) is not openable as a badger store.
	conn, err := Connect("/dev/null", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectExhausted)
	assert.Nil(t, conn)
}
