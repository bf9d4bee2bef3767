package log

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestFilterMatches(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	portal := ComponentPortal
	errCat := CategoryError
	start := base.Add(-time.Minute)
	end := base.Add(time.Minute)

	event := Event{
		Timestamp: base,
		CycleID:   "abcd1234-0000",
		Component: ComponentPortal,
		Category:  CategoryError,
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"Empty", Filter{}, true},
		{"CyclePrefix", Filter{CycleID: "abcd"}, true},
		{"OtherCycle", Filter{CycleID: "ffff"}, false},
		{"Component", Filter{Component: &portal}, true},
		{"Category", Filter{Category: &errCat}, true},
		{"InWindow", Filter{TimeStart: &start, TimeEnd: &end}, true},
		{"BeforeWindow", Filter{TimeStart: &end}, false},
		{"EndExclusive", Filter{TimeEnd: &base}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStreamReaderSkipsNonMatching(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, c := range []Component{ComponentController, ComponentPortal, ComponentBringUp, ComponentPortal} {
		if err := enc.Encode(Event{Timestamp: time.Now(), Component: c}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	portal := ComponentPortal
	r := NewStreamReader(&buf, Filter{Component: &portal})
	defer r.Close()

	count := 0
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if e.Component != ComponentPortal {
			t.Errorf("got component %v", e.Component)
		}
		count++
	}
	if count != 2 {
		t.Errorf("got %d events, want 2", count)
	}
}
