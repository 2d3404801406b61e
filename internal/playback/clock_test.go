package playback

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"
)

func TestMediaClockSeekClamps(t *testing.T) {
	c := NewMediaClock(WithDuration(10))

	tests := []struct {
		seek float64
		want float64
	}{
		{seek: 4, want: 4},
		{seek: -2, want: 0},
		{seek: 25, want: 10},
		{seek: math.NaN(), want: 0},
	}
	for _, tt := range tests {
		c.Seek(tt.seek)
		if got := c.CurrentTime(); got != tt.want {
			t.Errorf("Seek(%g): CurrentTime() = %g, want %g", tt.seek, got, tt.want)
		}
	}
}

func TestMediaClockUnknownDuration(t *testing.T) {
	c := NewMediaClock()
	if got := c.Duration(); got != 0 {
		t.Fatalf("Duration() = %g, want 0", got)
	}

	c.Seek(42)
	if got := c.CurrentTime(); got != 42 {
		t.Errorf("CurrentTime() = %g, want 42 while duration is unknown", got)
	}

	c.SetDuration(30)
	if got := c.CurrentTime(); got != 30 {
		t.Errorf("CurrentTime() = %g, want position clamped to 30", got)
	}

	c.SetDuration(math.Inf(1))
	if got := c.Duration(); got != 0 {
		t.Errorf("Duration() = %g, want infinite duration treated as unknown", got)
	}
}

func TestMediaClockEvents(t *testing.T) {
	c := NewMediaClock()

	var got []Event
	id := c.Subscribe(func(ev Event) { got = append(got, ev) })
	if id == 0 {
		t.Fatal("Subscribe() returned the zero id")
	}

	c.SetDuration(8)
	c.Advance(3)
	c.Seek(6)

	want := []Event{
		{Type: EventLoadedMetadata, Time: 0, Duration: 8},
		{Type: EventTimeUpdate, Time: 3, Duration: 8},
		{Type: EventSeeked, Time: 6, Duration: 8},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	c.Unsubscribe(id)
	c.Advance(1)
	if len(got) != len(want) {
		t.Errorf("event delivered after Unsubscribe: %+v", got[len(got)-1])
	}
	if c.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d, want 0", c.Subscribers())
	}

	// unknown ids are ignored
	c.Unsubscribe(id)
	c.Unsubscribe(9999)
}

func TestMediaClockHandlerPanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := NewMediaClock(WithLogger(logger))

	var delivered int
	c.Subscribe(func(Event) { panic("boom") })
	c.Subscribe(func(Event) { delivered++ })

	c.Seek(1)

	if delivered != 1 {
		t.Errorf("second handler called %d times, want 1", delivered)
	}
	if !strings.Contains(buf.String(), "playback handler panicked") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestMediaClockReentrantHandler(t *testing.T) {
	c := NewMediaClock(WithDuration(10))

	var positions []float64
	c.Subscribe(func(ev Event) {
		positions = append(positions, c.CurrentTime())
		if ev.Type == EventTimeUpdate {
			c.Seek(ev.Time + 1)
		}
	})

	c.Advance(2)

	if len(positions) != 2 || positions[0] != 2 || positions[1] != 3 {
		t.Errorf("positions = %v, want [2 3]", positions)
	}
}

func TestMediaClockClose(t *testing.T) {
	c := NewMediaClock()

	var calls int
	c.Subscribe(func(Event) { calls++ })
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	c.Seek(1)
	if calls != 0 {
		t.Errorf("handler called %d times after Close", calls)
	}
	if id := c.Subscribe(func(Event) {}); id != 0 {
		t.Errorf("Subscribe() after Close = %d, want 0", id)
	}
}
