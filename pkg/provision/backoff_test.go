package provision

import (
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())

		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}

		for i, exp := range expected {
			if got := b.Current(); got != exp {
				t.Errorf("attempt %d: base = %v, want %v", i, got, exp)
			}
			b.Next()
		}
	})

	t.Run("JitterBounds", func(t *testing.T) {
		for range 50 {
			b := NewBackoff(DefaultBackoffConfig())
			d := b.Next()
			if d < time.Second || d > time.Second+time.Second/4 {
				t.Fatalf("delay %v out of [1s, 1.25s]", d)
			}
		}
	})

	t.Run("NoJitter", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{
			Initial:    100 * time.Millisecond,
			Max:        500 * time.Millisecond,
			Multiplier: 2,
		})

		expected := []time.Duration{
			100 * time.Millisecond,
			200 * time.Millisecond,
			400 * time.Millisecond,
			500 * time.Millisecond,
			500 * time.Millisecond,
		}
		for i, exp := range expected {
			if got := b.Next(); got != exp {
				t.Errorf("Next() #%d = %v, want %v", i, got, exp)
			}
		}
	})

	t.Run("Reset", func(t *testing.T) {
		b := NewBackoff(DefaultBackoffConfig())
		for range 5 {
			b.Next()
		}
		if b.Attempts() != 5 {
			t.Errorf("Attempts() = %d, want 5", b.Attempts())
		}

		b.Reset()
		if b.Current() != DefaultInitialDelay {
			t.Errorf("Current() = %v after reset, want %v", b.Current(), DefaultInitialDelay)
		}
		if b.Attempts() != 0 {
			t.Errorf("Attempts() = %d after reset, want 0", b.Attempts())
		}
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		b := NewBackoff(BackoffConfig{Initial: -1, Multiplier: 0.5, Jitter: -1})
		if b.Current() != DefaultInitialDelay {
			t.Errorf("Current() = %v, want %v", b.Current(), DefaultInitialDelay)
		}
		if got := b.Next(); got != DefaultInitialDelay {
			t.Errorf("Next() = %v, want %v without jitter", got, DefaultInitialDelay)
		}
		if b.Current() != 2*DefaultInitialDelay {
			t.Errorf("Current() = %v, want default multiplier", b.Current())
		}
	})
}
