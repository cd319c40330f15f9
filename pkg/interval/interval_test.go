package interval

import (
	"testing"

	"github.com/rapidaai/mixengine/pkg/fixedpoint"
)

func TestIntervalIsWithin(t *testing.T) {
	iv := FromMillis(100, 200)
	tests := []struct {
		name string
		t    int64
		want bool
	}{
		{"below", 99, false},
		{"lower bound", 100, true},
		{"middle", 150, true},
		{"upper bound", 200, true},
		{"above", 201, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := iv.IsWithin(fixedpoint.FromInt64(tt.t))
			if got != tt.want {
				t.Errorf("IsWithin(%d) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestIntervalOverlap(t *testing.T) {
	a := FromMillis(0, 100)
	b := FromMillis(50, 150)
	c := FromMillis(200, 300)

	if !a.IsOverlapping(b) {
		t.Errorf("expected a and b to overlap")
	}
	if a.IsOverlapping(c) {
		t.Errorf("expected a and c to be separating")
	}
	if !c.IsSeparating(a) {
		t.Errorf("expected c and a to be separating")
	}
}

func TestIntervalDistanceAndMidpoint(t *testing.T) {
	iv := FromMillis(100, 300)
	if iv.Distance().AsInt64() != 200 {
		t.Errorf("distance = %d, want 200", iv.Distance().AsInt64())
	}
	if iv.Midpoint().AsInt64() != 200 {
		t.Errorf("midpoint = %d, want 200", iv.Midpoint().AsInt64())
	}
}

func TestSampleTimeMillisRoundTrip(t *testing.T) {
	st := NewSampleTime(48000, 48000)
	ms := st.Millis()
	if ms.AsInt64() != 1000 {
		t.Errorf("expected 1000ms for 48000 frames at 48kHz, got %d", ms.AsInt64())
	}

	back := FromMillis(ms, 48000)
	if back.Frames != st.Frames {
		t.Errorf("round trip mismatch: got %d want %d", back.Frames, st.Frames)
	}
}

func TestSampleTimeAddFrames(t *testing.T) {
	st := NewSampleTime(0, 44100)
	st = st.AddFrames(512)
	if st.Frames != 512 {
		t.Errorf("expected 512 frames, got %d", st.Frames)
	}
}
