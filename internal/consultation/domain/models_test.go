package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowElapsed(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	c := &Consultation{
		ScheduledAt: now.Add(-time.Hour),
		EndsAt:      now.Add(-20 * time.Minute),
	}
	// Still inside the join grace after the scheduled end.
	assert.False(t, c.WindowElapsed(now))
	assert.True(t, c.WindowElapsed(now.Add(time.Hour)))

	// Without an end time the grace hangs off the scheduled start.
	c = &Consultation{ScheduledAt: now.Add(-2 * time.Hour)}
	assert.True(t, c.WindowElapsed(now))

	c = &Consultation{ScheduledAt: now.Add(time.Hour), EndsAt: now.Add(2 * time.Hour)}
	assert.False(t, c.WindowElapsed(now))
}
