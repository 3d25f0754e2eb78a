package resilience

import (
	"testing"
	"time"
)

func TestCooldownInitiallyAvailable(t *testing.T) {
	c := NewCooldown()
	if !c.IsAvailable() {
		t.Error("never-activated cooldown should be available")
	}
}

func TestCooldownGating(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewCooldownWithClock(func() time.Time { return now })

	c.Activate(30 * time.Minute)
	if c.IsAvailable() {
		t.Error("cooldown should be active immediately after Activate")
	}

	now = now.Add(29 * time.Minute)
	if c.IsAvailable() {
		t.Error("cooldown should still be active before expiry")
	}

	now = now.Add(1 * time.Minute)
	if !c.IsAvailable() {
		t.Error("cooldown should be over exactly at expiry")
	}
}

func TestActivateOverwritesNotExtends(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c := NewCooldownWithClock(func() time.Time { return now })

	c.Activate(60 * time.Minute)
	c.Activate(10 * time.Minute)

	want := base.Add(10 * time.Minute)
	if got := c.Until(); !got.Equal(want) {
		t.Errorf("Until = %v, want %v (overwrite, not max or sum)", got, want)
	}

	now = base.Add(11 * time.Minute)
	if !c.IsAvailable() {
		t.Error("shorter second activation should win")
	}
}
