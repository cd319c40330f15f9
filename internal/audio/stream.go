package audio

import (
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
)

// Stream is the contract every placed sound exposes to the mixer: sample
// rate, channel count, its placement on the timeline, its envelope and
// gain, a local time cursor, and a pull interface. The mixer is aware of a
// closed set of implementations (ImplicitWave, ExplicitWave); new variants
// are additions to this package, not changes to the interface.
type Stream interface {
	SampleRate() uint32
	Channels() uint32
	Interval() interval.Interval
	// SetInterval repositions the stream on the timeline. The mixer calls
	// this once, from AddTrack, after resolving an OffsetKind to an
	// absolute interval; a stream's own constructor only knows its
	// duration, not where the host will place it.
	SetInterval(iv interval.Interval)
	AttackTimeMs() uint64
	ReleaseTimeMs() uint64
	Gain() float32
	Pan() float32
	PullSamples(scratch []float32, pcm PCMSlice) PullInfo
	Seek(global interval.SampleTime)
	IsDead() bool
	// MarkDead flags the stream as finished; the mixer calls this once,
	// when it observes the stream's interval has ended, before emitting
	// TrackStopped and removing it from the index on the next tick.
	MarkDead()
}

// StreamState is the shared, embeddable state every Stream variant carries:
// its local playback cursor, its placement on the timeline, envelope
// timings, and gain/pan. Variants embed it and add their own source-specific
// fields (an oscillator function, a decoder handle).
type StreamState struct {
	LocalTime      interval.SampleTime
	GlobalInterval interval.Interval
	AttackTimeMs_  uint64
	ReleaseTimeMs_ uint64
	SampleRate_    uint32
	Channels_      uint32
	Gain_          float32
	Pan_           float32
	Dead           bool
}

func (s *StreamState) SampleRate() uint32             { return s.SampleRate_ }
func (s *StreamState) Channels() uint32               { return s.Channels_ }
func (s *StreamState) Interval() interval.Interval     { return s.GlobalInterval }
func (s *StreamState) SetInterval(iv interval.Interval) { s.GlobalInterval = iv }
func (s *StreamState) AttackTimeMs() uint64            { return s.AttackTimeMs_ }
func (s *StreamState) ReleaseTimeMs() uint64           { return s.ReleaseTimeMs_ }
func (s *StreamState) Gain() float32                   { return s.Gain_ }
func (s *StreamState) Pan() float32                    { return s.Pan_ }
func (s *StreamState) IsDead() bool                    { return s.Dead }
func (s *StreamState) MarkDead()                       { s.Dead = true }

// linearT returns the fraction (clamped to [0,1]) of the way t has traveled
// from start toward start+span, or 1 when span is non-positive.
func linearT(t, start, span float32) float32 {
	if span <= 0 {
		return 1
	}
	v := (t - start) / span
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// applyEnvelopeAndGain applies the attack/release gain curve described in
// the component design: a smoothstep ramp up over the first attackMs of the
// interval, a square ramp down over the last releaseMs, multiplied by the
// stream's overall gain. localTimeMs is the interval-relative time of the
// first frame in pcm; frameDeltaMs is the per-frame time step.
func applyEnvelopeAndGain(
	data []float32,
	framesPerChannel, channels int,
	localTimeMs, frameDeltaMs float32,
	intervalSpanMs float32,
	attackMs, releaseMs uint64,
	gain float32,
) {
	localAttackMs := float32(attackMs)
	localReleaseStartMs := intervalSpanMs - float32(releaseMs)

	t := localTimeMs
	for i := 0; i < framesPerChannel; i++ {
		attackT := 1 - linearT(t, 0, localAttackMs)
		releaseT := float32(1)
		if releaseMs > 0 {
			releaseT = 1 - linearT(t, localReleaseStartMs, float32(releaseMs))
		}

		attackCoef := 1 - attackT*attackT
		releaseCoef := releaseT * releaseT
		envelopeGain := attackCoef * releaseCoef * gain

		for c := 0; c < channels; c++ {
			data[i*channels+c] *= envelopeGain
		}
		t += frameDeltaMs
	}
}

func frameDeltaMs(sampleRate uint32) fixedpoint.FP64 {
	return fixedpoint.FromInt64(1000).Div(fixedpoint.FromUint32(sampleRate))
}

func elapsedMs(framesPerChannel int, sampleRate uint32) fixedpoint.FP64 {
	return fixedpoint.FromInt64(int64(framesPerChannel)).Mul(fixedpoint.FromInt64(1000)).Div(fixedpoint.FromUint32(sampleRate))
}

// downmixUpmix collapses or replicates a decoded channel group of width
// srcChannels into dstChannels, writing the result into group[0:dstChannels].
// Extra source channels are averaged into the kept ones; a mono source is
// replicated across every destination channel.
func downmixUpmix(group []float32, srcChannels, dstChannels int) {
	if srcChannels == dstChannels {
		return
	}
	if srcChannels < dstChannels {
		last := group[srcChannels-1]
		for i := srcChannels; i < dstChannels; i++ {
			group[i] = last
		}
		return
	}
	for aux := dstChannels; aux < srcChannels; aux++ {
		auxSample := group[aux]
		for kept := 0; kept < dstChannels; kept++ {
			group[kept] = (group[kept] + auxSample) * 0.5
		}
	}
}
