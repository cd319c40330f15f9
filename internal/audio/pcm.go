// Package audio implements the uniform pull-interface streams the mixer
// schedules: implicit oscillators and explicit decoded clips.
package audio

import "github.com/rapidaai/mixengine/pkg/fixedpoint"

// PCMSlice describes the mixer's target buffer for one pull: an interleaved
// f32 slice at a fixed sample rate and channel count, packed
// [L0, R0, L1, R1, ...] for stereo.
type PCMSlice struct {
	Data       []float32
	SampleRate uint32
	Channels   uint32
}

func (p PCMSlice) SamplesPerChannel() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Data) / int(p.Channels)
}

// PullInfo reports what a single pull_samples call actually produced.
type PullInfo struct {
	SamplesWritten       int
	FramesPerChannel     int
	ElapsedMs            fixedpoint.FP64
}
