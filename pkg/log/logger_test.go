package log

import "testing"

func TestMultiLoggerFansOutInOrder(t *testing.T) {
	var got []string
	record := func(name string) Logger {
		return LoggerFunc(func(e Event) { got = append(got, name+":"+e.CycleID) })
	}

	m := NewMultiLogger(record("a"), nil, record("b"))
	m.Log(Event{CycleID: "c1"})

	want := []string{"a:c1", "b:c1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	m := NewMultiLogger()
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
	// Must not panic.
	NoopLogger{}.Log(Event{})
	m.Log(Event{})
}
