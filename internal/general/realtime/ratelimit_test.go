package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimitAllowsUpToLimitWithinWindow(t *testing.T) {
	l := NewEventLimiter()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		now = now.Add(900 * time.Millisecond) // all inside the 60s window
		assert.True(t, l.Allow("conn-1", "driver-location-update", 60, time.Minute), "event %d", i+1)
	}
	assert.False(t, l.Allow("conn-1", "driver-location-update", 60, time.Minute), "61st must be rejected")
	assert.False(t, l.Allow("conn-1", "driver-location-update", 60, time.Minute), "still rejected, count frozen")
}

func TestWindowExpiryResets(t *testing.T) {
	l := NewEventLimiter()
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("conn-1", "track-delivery", 10, time.Minute))
	}
	assert.False(t, l.Allow("conn-1", "track-delivery", 10, time.Minute))

	now = now.Add(time.Minute)
	assert.True(t, l.Allow("conn-1", "track-delivery", 10, time.Minute), "fresh window after expiry")
}

func TestLimitsAreIndependentPerConnectionAndEvent(t *testing.T) {
	l := NewEventLimiter()

	assert.True(t, l.Allow("conn-1", "track-delivery", 1, time.Minute))
	assert.False(t, l.Allow("conn-1", "track-delivery", 1, time.Minute))

	// different event type on same connection
	assert.True(t, l.Allow("conn-1", "driver-location-update", 1, time.Minute))
	// same event type on another connection
	assert.True(t, l.Allow("conn-2", "track-delivery", 1, time.Minute))
}

func TestZeroLimitMeansUnlimited(t *testing.T) {
	l := NewEventLimiter()
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow("conn-1", "stop-tracking", 0, time.Minute))
	}
}

func TestForgetDropsWindows(t *testing.T) {
	l := NewEventLimiter()

	assert.True(t, l.Allow("conn-1", "track-delivery", 1, time.Minute))
	assert.False(t, l.Allow("conn-1", "track-delivery", 1, time.Minute))

	l.Forget("conn-1")
	assert.True(t, l.Allow("conn-1", "track-delivery", 1, time.Minute), "reconnect starts clean")
}
