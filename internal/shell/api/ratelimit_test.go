package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rps float64, burst int, maxKeys int64) *keyedLimiter {
	t.Helper()
	l, err := newKeyedLimiter(rps, burst, maxKeys)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func TestKeyedLimiter(t *testing.T) {
	l := newTestLimiter(t, 0.001, 2, 0)

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))

	// Buckets are independent per key.
	assert.True(t, l.Allow("b"))
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	l := newTestLimiter(t, 0, 0, 0)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("a"))
	}
	assert.Zero(t, l.size())
}

func TestKeyedLimiter_BoundedKeys(t *testing.T) {
	l := newTestLimiter(t, 0.001, 2, 100)

	for i := 0; i < 5000; i++ {
		l.Allow(fmt.Sprintf("user_%d", i))
	}

	assert.LessOrEqual(t, l.size(), uint64(100))
}

func TestKeyedLimiter_IdleExpiry(t *testing.T) {
	tests := []struct {
		name  string
		rps   float64
		burst int
		want  time.Duration
	}{
		{"time to refill", 0.001, 2, 2000 * time.Second},
		{"one second floor", 100, 1, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLimiter(t, tt.rps, tt.burst, 10)
			assert.Equal(t, tt.want, l.idle)
		})
	}
}
