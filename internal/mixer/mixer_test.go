package mixer

import (
	"io"
	"math"
	"testing"

	"github.com/rapidaai/mixengine/internal/audio"
	"github.com/rapidaai/mixengine/internal/audio/resampler"
	"github.com/rapidaai/mixengine/pkg/interval"
	"github.com/stretchr/testify/require"
)

func newSine(freqHz float64, placementMs int64, gain float32) *audio.ImplicitWave {
	return audio.NewImplicitWave(audio.WaveSine, freqHz, 48000, 2, interval.FromMillis(0, placementMs), 0, 0, gain, 0)
}

func TestScenario1SilenceAdvancesPlayheadExactly(t *testing.T) {
	m := NewMixer(44100, 2, nil)
	pcm := audio.PCMSlice{Data: make([]float32, 512*2), SampleRate: 44100, Channels: 2}

	responses := m.MixAudio(pcm, nil)
	require.Empty(t, responses)
	for _, v := range pcm.Data {
		require.Equal(t, float32(0), v)
	}
	require.Equal(t, int64(512), m.Playhead().Frames)
}

func TestScenario2SingleSineMatchesReferenceSine(t *testing.T) {
	m := NewMixer(48000, 2, nil)
	stream := newSine(440, 1000, 1.0)
	resp := m.ApplyRequest(AddTrackRequest{Track: 1, Offset: AtStart(0), Stream: stream})
	require.Nil(t, resp)

	const frames = 48000
	pcm := audio.PCMSlice{Data: make([]float32, frames*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm, nil)

	for n := 0; n < frames; n++ {
		left := pcm.Data[n*2]
		right := pcm.Data[n*2+1]
		require.InDelta(t, left, right, 1e-6)
		expected := math.Sin(2 * math.Pi * 440 * float64(n) / 48000)
		require.InDeltaf(t, expected, float64(left), 1e-5, "frame %d", n)
	}
}

func TestScenario3TwoTrackSumMatchesWeightedSines(t *testing.T) {
	m := NewMixer(48000, 2, nil)
	m.ApplyRequest(AddTrackRequest{Track: 1, Offset: AtStart(0), Stream: newSine(440, 1000, 0.5)})
	m.ApplyRequest(AddTrackRequest{Track: 2, Offset: AtStart(0), Stream: newSine(880, 1000, 0.5)})

	const frames = 1000
	pcm := audio.PCMSlice{Data: make([]float32, frames*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm, nil)

	for n := 0; n < frames; n++ {
		expected := 0.5*math.Sin(2*math.Pi*440*float64(n)/48000) + 0.5*math.Sin(2*math.Pi*880*float64(n)/48000)
		require.InDeltaf(t, expected, float64(pcm.Data[n*2]), 1e-5, "frame %d", n)
	}
}

func TestScenario4SeekRepositionsActiveStream(t *testing.T) {
	m := NewMixer(48000, 2, nil)
	m.ApplyRequest(AddTrackRequest{Track: 1, Offset: AtStart(0), Stream: newSine(440, 10000, 1.0)})

	pcm := audio.PCMSlice{Data: make([]float32, 48000*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm, nil)

	m.ApplyRequest(SeekRequest{Offset: AtStart(5000)})

	pcm2 := audio.PCMSlice{Data: make([]float32, 48000*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm2, nil)

	n := int64(5000 * 48)
	expected := math.Sin(2 * math.Pi * 440 * float64(n) / 48000)
	require.InDelta(t, expected, float64(pcm2.Data[0]), 1e-5)
}

func TestScenario5RemoveTrackStopsExactlyThatStreamAndEmitsEvent(t *testing.T) {
	m := NewMixer(48000, 2, nil)
	m.ApplyRequest(AddTrackRequest{Track: 1, Offset: AtStart(0), Stream: newSine(440, 10000, 0.5)})
	m.ApplyRequest(AddTrackRequest{Track: 2, Offset: AtStart(0), Stream: newSine(880, 10000, 0.5)})

	pcm := audio.PCMSlice{Data: make([]float32, 4800*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm, nil)

	responses := m.MixAudio(pcm, []Request{RemoveTrackRequest{Track: 1}})
	stopped := 0
	for _, r := range responses {
		if ev, ok := r.(MixerEventResponse); ok && ev.Kind == TrackStopped {
			stopped++
			require.Equal(t, TrackID(1), ev.Track)
		}
	}
	require.Equal(t, 1, stopped)
	require.Equal(t, 1, m.TrackCount())

	pcm2 := audio.PCMSlice{Data: make([]float32, 100*2), SampleRate: 48000, Channels: 2}
	m.MixAudio(pcm2, nil)
	for n := 0; n < 100; n++ {
		expected := 0.5 * math.Sin(2*math.Pi*880*float64(n+9600)/48000)
		require.InDeltaf(t, expected, float64(pcm2.Data[n*2]), 1e-5, "frame %d", n)
	}
}

// loopDecoder is a minimal codec.Decoder exercising the Repeat scale mode
// through the mixer end to end: a ramp whose value is its sample index
// divided by 1000, which keeps it inside the mixer's [-1, 1] clipping range
// while letting a test detect a dropped or duplicated frame at the loop seam.
type loopDecoder struct {
	pcm        []float32
	cursor     int
	sampleRate uint32
}

func newLoopDecoder(frames int, rate uint32) *loopDecoder {
	pcm := make([]float32, frames)
	for i := range pcm {
		pcm[i] = float32(i) / 1000
	}
	return &loopDecoder{pcm: pcm, sampleRate: rate}
}

func (d *loopDecoder) Decode(into []float32) (int, error) {
	remaining := len(d.pcm) - d.cursor
	if remaining <= 0 {
		return 0, io.EOF
	}
	n := len(into)
	if n > remaining {
		n = remaining
	}
	copy(into[:n], d.pcm[d.cursor:d.cursor+n])
	d.cursor += n
	return n, nil
}
func (d *loopDecoder) Seek(pos uint64) error {
	if int(pos) > len(d.pcm) {
		pos = uint64(len(d.pcm))
	}
	d.cursor = int(pos)
	return nil
}
func (d *loopDecoder) SampleRate() uint32             { return d.sampleRate }
func (d *loopDecoder) Channels() uint32               { return 1 }
func (d *loopDecoder) TotalSamplesPerChannel() uint64 { return uint64(len(d.pcm)) }

func TestScenario6LoopRolloverHasNoGapOrDuplicateAtSeam(t *testing.T) {
	m := NewMixer(1000, 1, nil)
	dec := newLoopDecoder(500, 1000)
	stream := audio.NewExplicitWave(dec, audio.ScaleRepeat, resampler.Passthrough{}, interval.FromMillis(0, 2000), 0, 0, 1, 0)
	m.ApplyRequest(AddTrackRequest{Track: 1, Offset: AtStart(0), Stream: stream})

	// Pulled in ticks no larger than the clip itself, matching the scale
	// mode's single-seek-per-call contract: a tick that spans more than
	// one full loop of the clip is out of scope for Repeat mode.
	const tick = 250
	var out []float32
	for i := 0; i < 2000/tick; i++ {
		pcm := audio.PCMSlice{Data: make([]float32, tick), SampleRate: 1000, Channels: 1}
		m.MixAudio(pcm, nil)
		out = append(out, pcm.Data...)
	}

	require.Len(t, out, 2000)
	for loop := 0; loop < 4; loop++ {
		for i := 0; i < 500; i++ {
			expected := float32(i) / 1000
			got := out[loop*500+i]
			require.InDeltaf(t, expected, got, 1e-6, "loop %d frame %d", loop, i)
		}
	}
}
