package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEncodeDecodeStateEvent(t *testing.T) {
	ts := time.Date(2026, 3, 2, 8, 0, 1, 123456789, time.UTC)
	event := Event{
		Timestamp: ts,
		CycleID:   "8d3c2f8e-4a55-4a3e-9d7b-1f2e3d4c5b6a",
		Component: ComponentBringUp,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityStage,
			OldState: "SCAN_MODE",
			NewState: "SETUP_ACCESS_POINT",
		},
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	got, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v (nanosecond precision)", got.Timestamp, ts)
	}
	if got.CycleID != event.CycleID {
		t.Errorf("CycleID: got %q, want %q", got.CycleID, event.CycleID)
	}
	if got.StateChange == nil || got.StateChange.NewState != "SETUP_ACCESS_POINT" {
		t.Errorf("StateChange: got %+v", got.StateChange)
	}
	if got.Request != nil || got.Scan != nil || got.Error != nil {
		t.Error("unexpected payloads decoded")
	}
}

func TestEncodeUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{Timestamp: time.Now(), Component: ComponentPortal})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	if bytes.Contains(data, []byte("Component")) || bytes.Contains(data, []byte("Timestamp")) {
		t.Error("encoded event contains field names, want integer keys")
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{
			Timestamp: time.Now(),
			Component: ComponentPortal,
			Category:  CategoryScan,
			Scan:      &ScanEvent{Count: i},
		}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		var e Event
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("Decode %d failed: %v", i, err)
		}
		if e.Scan == nil || e.Scan.Count != i {
			t.Errorf("event %d: got %+v", i, e.Scan)
		}
	}
}
