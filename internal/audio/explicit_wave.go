package audio

import (
	"github.com/rapidaai/mixengine/internal/audio/codec"
	"github.com/rapidaai/mixengine/internal/audio/resampler"
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
)

const maxChannelsToMix = 8

// ScaleMode selects how an ExplicitWave reconciles its clip's duration with
// a longer placed interval.
type ScaleMode int

const (
	// ScaleRepeat loops the clip from the start once it is exhausted.
	ScaleRepeat ScaleMode = iota
	// ScaleStretch is an explicit placeholder: the source codec this
	// engine ships with has no time-stretch implementation, so a stream
	// in this mode yields silence and reports zero elapsed time. A
	// caller may supply a real implementation by adapting Decoder.
	ScaleStretch
)

// ExplicitWave is a decoded, seekable clip. Decoding, resampling, and
// channel mixing happen per pull from in-memory buffers only.
type ExplicitWave struct {
	StreamState
	decoder      codec.Decoder
	resampler    resampler.Resampler
	ClipDuration interval.SampleTime
	Mode         ScaleMode
}

func NewExplicitWave(dec codec.Decoder, mode ScaleMode, res resampler.Resampler, placement interval.Interval, attackMs, releaseMs uint64, gain, pan float32) *ExplicitWave {
	if res == nil {
		res = resampler.Passthrough{}
	}
	clipDuration := interval.NewSampleTime(int64(dec.TotalSamplesPerChannel()), dec.SampleRate())

	return &ExplicitWave{
		StreamState: StreamState{
			LocalTime:      interval.NewSampleTime(0, dec.SampleRate()),
			GlobalInterval: placement,
			AttackTimeMs_:  attackMs,
			ReleaseTimeMs_: releaseMs,
			SampleRate_:    dec.SampleRate(),
			Channels_:      dec.Channels(),
			Gain_:          gain,
			Pan_:           pan,
		},
		decoder:      dec,
		resampler:    res,
		ClipDuration: clipDuration,
		Mode:         mode,
	}
}

// pullNonRepeat decodes one block at the clip's native rate, resamples it
// to the target rate if they differ, downmixes/upmixes to the target
// channel count, and applies the envelope and gain. It does not loop: if
// the clip runs out mid-block the returned frame count is short.
func (w *ExplicitWave) pullNonRepeat(scratch []float32, pcm PCMSlice) PullInfo {
	localTimeMs := w.LocalTime.Millis().AsFloat64()
	spanMs := w.GlobalInterval.Distance().AsFloat64()

	srcChannels := int(w.decoder.Channels())
	dstChannels := int(pcm.Channels)
	framesPerChannelOut := pcm.SamplesPerChannel()

	srcRate := w.decoder.SampleRate()
	dstRate := pcm.SampleRate

	framesPerChannelSrc := framesPerChannelOut
	if srcRate != dstRate {
		framesPerChannelSrc = int(int64(framesPerChannelOut)*int64(srcRate)/int64(dstRate)) + 1
	}

	samplesNeeded := srcChannels * framesPerChannelSrc
	if samplesNeeded > len(scratch) {
		samplesNeeded = len(scratch)
	}
	samplesRead, _ := w.decoder.Decode(scratch[:samplesNeeded])
	samplesReadPerChannel := 0
	if srcChannels > 0 {
		samplesReadPerChannel = samplesRead / srcChannels
	}
	w.LocalTime = w.LocalTime.AddFrames(int64(samplesReadPerChannel))

	decoded := scratch[:samplesRead]
	resampled := decoded
	if srcRate != dstRate && len(decoded) > 0 {
		resampled = w.resampler.Resample(decoded, srcRate, dstRate, srcChannels)
	}

	resampledFramesPerChannel := 0
	if srcChannels > 0 {
		resampledFramesPerChannel = len(resampled) / srcChannels
	}
	if resampledFramesPerChannel > framesPerChannelOut {
		resampledFramesPerChannel = framesPerChannelOut
	}

	var group [maxChannelsToMix]float32
	mixWidth := srcChannels
	if dstChannels > mixWidth {
		mixWidth = dstChannels
	}
	if mixWidth > maxChannelsToMix {
		mixWidth = maxChannelsToMix
	}

	for i := 0; i < resampledFramesPerChannel; i++ {
		for c := 0; c < srcChannels && c < maxChannelsToMix; c++ {
			group[c] = resampled[srcChannels*i+c]
		}
		downmixUpmix(group[:mixWidth], srcChannels, dstChannels)
		for c := 0; c < dstChannels; c++ {
			pcm.Data[dstChannels*i+c] = group[c]
		}
	}
	for i := resampledFramesPerChannel; i < framesPerChannelOut; i++ {
		for c := 0; c < dstChannels; c++ {
			pcm.Data[dstChannels*i+c] = 0
		}
	}

	applyEnvelopeAndGain(pcm.Data, resampledFramesPerChannel, dstChannels, float32(localTimeMs), float32(1000.0/float64(dstRate)), float32(spanMs), w.AttackTimeMs_, w.ReleaseTimeMs_, w.Gain_)

	return PullInfo{
		SamplesWritten:   resampledFramesPerChannel * dstChannels,
		FramesPerChannel: resampledFramesPerChannel,
		ElapsedMs:        elapsedMs(resampledFramesPerChannel, dstRate),
	}
}

// pullRepeat handles the seamless same-call loop: if the clip runs out
// mid-block, it stashes what was already decoded, seeks the decoder back
// to the start, decodes the remainder, and splices the two halves together
// without dropping or duplicating a sample at the seam. It performs at
// most one such seek per call: a pull spanning more than one full loop of
// the clip is not supported, matching the single-seek limitation of the
// decode path it is grounded on.
func (w *ExplicitWave) pullRepeat(scratch []float32, pcm PCMSlice) PullInfo {
	samplesNeededPerChannel := pcm.SamplesPerChannel()

	first := w.pullNonRepeat(scratch, pcm)
	if first.FramesPerChannel >= samplesNeededPerChannel {
		return first
	}

	pcmLen := len(pcm.Data)
	stashStart := len(scratch) - first.SamplesWritten
	for i := 0; i < first.SamplesWritten; i++ {
		scratch[stashStart+i] = pcm.Data[i]
	}

	_ = w.decoder.Seek(0)

	second := w.pullNonRepeat(scratch, PCMSlice{Data: pcm.Data[:pcmLen-first.SamplesWritten], SampleRate: pcm.SampleRate, Channels: pcm.Channels})

	shift := pcmLen - second.SamplesWritten
	for i := second.SamplesWritten - 1; i >= 0; i-- {
		pcm.Data[i+shift] = pcm.Data[i]
	}
	copy(pcm.Data, scratch[stashStart:stashStart+first.SamplesWritten])

	return PullInfo{
		SamplesWritten:   pcmLen,
		FramesPerChannel: samplesNeededPerChannel,
		ElapsedMs:        elapsedMs(samplesNeededPerChannel, pcm.SampleRate),
	}
}

func (w *ExplicitWave) pullStretch(_ []float32, pcm PCMSlice) PullInfo {
	for i := range pcm.Data {
		pcm.Data[i] = 0
	}
	return PullInfo{SamplesWritten: 0, FramesPerChannel: 0, ElapsedMs: fixedpoint.Zero64()}
}

func (w *ExplicitWave) PullSamples(scratch []float32, pcm PCMSlice) PullInfo {
	switch w.Mode {
	case ScaleRepeat:
		return w.pullRepeat(scratch, pcm)
	default:
		return w.pullStretch(scratch, pcm)
	}
}

func (w *ExplicitWave) Seek(global interval.SampleTime) {
	zero := fixedpoint.Zero64()
	span := w.GlobalInterval.Distance()
	targetMs := global.Millis().Sub(w.GlobalInterval.Lo)
	if targetMs.Less(zero) {
		targetMs = zero
	}
	if targetMs.Greater(span) {
		targetMs = span
	}

	switch w.Mode {
	case ScaleRepeat:
		clipDurationMs := w.ClipDuration.Millis().AsInt64()
		if clipDurationMs <= 0 {
			clipDurationMs = 1
		}
		circularMs := targetMs.AsInt64() % clipDurationMs
		_ = w.decoder.Seek(uint64(circularMs) * uint64(w.decoder.SampleRate()) / 1000)
		w.LocalTime = interval.FromMillis(targetMs, w.SampleRate_)
	default:
		_ = w.decoder.Seek(uint64(targetMs.AsInt64()) * uint64(w.decoder.SampleRate()) / 1000)
		w.LocalTime = interval.FromMillis(targetMs, w.SampleRate_)
	}
}
