package audio

import (
	"math"
	"math/rand"

	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
)

// WaveKind selects the pure function an ImplicitWave evaluates.
type WaveKind int

const (
	WaveSine WaveKind = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// ImplicitWave is a restartable oscillator: amplitude is a pure function of
// elapsed time, so seeking it is free and it never goes dead from exhausting
// an internal buffer (only from its placed interval ending).
type ImplicitWave struct {
	StreamState
	Kind      WaveKind
	Frequency float64
	rng       *rand.Rand
}

func NewImplicitWave(kind WaveKind, frequencyHz float64, sampleRate, channels uint32, placement interval.Interval, attackMs, releaseMs uint64, gain, pan float32) *ImplicitWave {
	return &ImplicitWave{
		StreamState: StreamState{
			LocalTime:      interval.NewSampleTime(0, sampleRate),
			GlobalInterval: placement,
			AttackTimeMs_:  attackMs,
			ReleaseTimeMs_: releaseMs,
			SampleRate_:    sampleRate,
			Channels_:      channels,
			Gain_:          gain,
			Pan_:           pan,
		},
		Kind:      kind,
		Frequency: frequencyHz,
		rng:       rand.New(rand.NewSource(1)),
	}
}

// evaluate maps interval-relative milliseconds to a [-1, 1] amplitude. The
// phase is carried in float64 (not the fixed-point approximation pkg/
// fixedpoint.Sin uses) because oscillator output must match double
// precision trigonometry to the tolerance the mixer's end-to-end scenarios
// require; pkg/fixedpoint's spline approximation is reserved for the
// timeline arithmetic that must stay drift-free across very long sessions.
func (w *ImplicitWave) evaluate(tMs float64) float32 {
	tSeconds := tMs / 1000.0
	switch w.Kind {
	case WaveSine:
		return float32(math.Sin(2 * math.Pi * w.Frequency * tSeconds))
	case WaveSquare:
		if math.Sin(2*math.Pi*w.Frequency*tSeconds) >= 0 {
			return 1
		}
		return -1
	case WaveSaw:
		phase := w.Frequency * tSeconds
		frac := phase - math.Floor(phase)
		return float32(2*frac - 1)
	case WaveTriangle:
		phase := w.Frequency*tSeconds + 0.25
		frac := phase - math.Floor(phase)
		return float32(4*math.Abs(frac-0.5) - 1)
	case WaveNoise:
		return w.rng.Float32()*2 - 1
	default:
		return 0
	}
}

func (w *ImplicitWave) PullSamples(scratch []float32, pcm PCMSlice) PullInfo {
	framesPerChannel := pcm.SamplesPerChannel()
	outChannels := int(pcm.Channels)

	localMs := w.LocalTime.Millis().AsFloat64()
	spanMs := w.GlobalInterval.Distance().AsFloat64()
	deltaMs := 1000.0 / float64(pcm.SampleRate)

	t := localMs
	for i := 0; i < framesPerChannel; i++ {
		var sample float32
		if t <= spanMs {
			sample = w.evaluate(t)
		}
		for c := 0; c < outChannels; c++ {
			pcm.Data[i*outChannels+c] = sample
		}
		t += deltaMs
	}

	applyEnvelopeAndGain(pcm.Data, framesPerChannel, outChannels, float32(localMs), float32(deltaMs), float32(spanMs), w.AttackTimeMs_, w.ReleaseTimeMs_, w.Gain_)

	w.LocalTime = w.LocalTime.AddFrames(int64(framesPerChannel))

	return PullInfo{
		SamplesWritten:   framesPerChannel * outChannels,
		FramesPerChannel: framesPerChannel,
		ElapsedMs:        elapsedMs(framesPerChannel, pcm.SampleRate),
	}
}

// Seek clamps to the stream's interval and repositions local_time; an
// oscillator has no decoder to re-seek.
func (w *ImplicitWave) Seek(global interval.SampleTime) {
	target := global.Millis().Sub(w.GlobalInterval.Lo)
	zero := fixedpoint.Zero64()
	span := w.GlobalInterval.Distance()
	if target.Less(zero) {
		target = zero
	}
	if target.Greater(span) {
		target = span
	}
	w.LocalTime = interval.FromMillis(target, w.SampleRate_)
}
