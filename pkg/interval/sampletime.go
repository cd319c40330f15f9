package interval

import "github.com/rapidaai/mixengine/pkg/fixedpoint"

// SampleTime is a counter in sample frames paired with a sample rate. It is
// independent of wall-clock time; the mixer's playhead is expressed in it.
type SampleTime struct {
	Frames     int64
	SampleRate uint32
}

func NewSampleTime(frames int64, sampleRate uint32) SampleTime {
	return SampleTime{Frames: frames, SampleRate: sampleRate}
}

// FromMillis converts a millisecond duration into a frame count at rate.
func FromMillis(ms fixedpoint.FP64, sampleRate uint32) SampleTime {
	frameCount := ms.Mul(fixedpoint.FromUint32(sampleRate)).Div(fixedpoint.FromInt64(1000))
	return SampleTime{Frames: frameCount.AsInt64(), SampleRate: sampleRate}
}

// Millis converts the frame count to FP64 milliseconds: ms = frames*1000/rate.
func (s SampleTime) Millis() fixedpoint.FP64 {
	return fixedpoint.FromInt64(s.Frames).Mul(fixedpoint.FromInt64(1000)).Div(fixedpoint.FromUint32(s.SampleRate))
}

// AddFrames advances the counter by n frames, returning a new value.
func (s SampleTime) AddFrames(n int64) SampleTime {
	return SampleTime{Frames: s.Frames + n, SampleRate: s.SampleRate}
}

// WithRate re-bases the frame count onto a different sample rate, preserving
// the represented wall-clock position (to within one frame of rounding).
func (s SampleTime) WithRate(rate uint32) SampleTime {
	if rate == s.SampleRate {
		return s
	}
	ms := s.Millis()
	return FromMillis(ms, rate)
}
