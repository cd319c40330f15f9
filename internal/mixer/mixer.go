// Package mixer owns the segment tree of placed streams and the mix_audio
// tick that turns the active set at the playhead into a PCM buffer. It is
// the sole owner of everything it touches; the only way in is a Request,
// applied through ApplyRequest or passed to MixAudio as a batch drained from
// internal/hostctx's queue.
package mixer

import (
	"github.com/rapidaai/mixengine/internal/audio"
	"github.com/rapidaai/mixengine/internal/commons"
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
	"github.com/rapidaai/mixengine/pkg/mixerr"
	"github.com/rapidaai/mixengine/pkg/segtree"
)

// maxHeight and timelineWidthMs follow the component design's recommended
// values: a tree deep enough that bucket sizes stay small, and a circular
// domain wide enough (~12.4 days) that wraparound never matters in practice.
const (
	maxHeight       = 30
	timelineWidthMs = int64(1) << 30
)

// smallLeadMs is the lead time given to a track placed with OffsetKind
// Current, so it starts just after the instant it was requested rather than
// exactly at a playhead value that may already have advanced past it.
var smallLeadMs = fixedpoint.FromInt64(5)

type trackEntry struct {
	id        TrackID
	stream    audio.Stream
	globalIdx segtree.GlobalIndex
	started   bool
}

// Mixer is single-owner state for the audio agent: the segment tree of
// placed streams, the playhead, and playback speed. Nothing here takes a
// lock, and a Mixer is not safe for concurrent use.
type Mixer struct {
	tree             *segtree.Tree[*trackEntry]
	tracks           map[TrackID]*trackEntry
	playhead         interval.SampleTime
	outputSampleRate uint32
	outputChannels   uint32
	speed            fixedpoint.FP32
	scratch          []float32
	mixBuf           []float32
	logger           commons.Logger
}

func NewMixer(outputSampleRate, outputChannels uint32, logger commons.Logger) *Mixer {
	return &Mixer{
		tree:             segtree.New[*trackEntry](maxHeight, timelineWidthMs),
		tracks:           make(map[TrackID]*trackEntry),
		playhead:         interval.NewSampleTime(0, outputSampleRate),
		outputSampleRate: outputSampleRate,
		outputChannels:   outputChannels,
		speed:            fixedpoint.FromInt32_32(1),
		logger:           logger,
	}
}

func toSegInterval(iv interval.Interval) segtree.Interval {
	return segtree.NewInterval(iv.Lo.AsInt64(), iv.Hi.AsInt64())
}

func (m *Mixer) ensureScratch(n int) []float32 {
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n*2)
	}
	return m.scratch[:n]
}

func (m *Mixer) ensureMixBuf(n int) []float32 {
	if cap(m.mixBuf) < n {
		m.mixBuf = make([]float32, n)
	}
	buf := m.mixBuf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// ApplyRequest applies one host request to mixer state, returning a
// Response to enqueue immediately (an error, or a synchronous answer like
// MixerTime), or nil if nothing needs to be reported right away.
func (m *Mixer) ApplyRequest(req Request) Response {
	switch r := req.(type) {
	case AddTrackRequest:
		return m.applyAddTrack(r)
	case RemoveTrackRequest:
		return m.applyRemoveTrack(r)
	case SeekRequest:
		return m.applySeek(r)
	case MutateMixerRequest:
		return m.applyMutate(r)
	case SetSpeedRequest:
		return m.applySetSpeed(r)
	case FetchMixerTimeRequest:
		return MixerTimeResponse{Time: m.playhead}
	default:
		return ErrorResponse{Err: mixerr.New(mixerr.ProgrammerError, "unknown request type %T", req)}
	}
}

func (m *Mixer) applyAddTrack(r AddTrackRequest) Response {
	if r.Track == NullTrackID {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "AddTrack requires a non-null track id")}
	}
	if _, exists := m.tracks[r.Track]; exists {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "track %d already exists", r.Track)}
	}
	if r.Stream == nil {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "AddTrack requires a stream")}
	}

	var lo fixedpoint.FP64
	switch r.Offset.Tag {
	case OffsetStart:
		lo = fixedpoint.FromUint64(r.Offset.OffsetMs)
	case OffsetCurrent:
		lo = m.playhead.Millis().Add(smallLeadMs)
	default:
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "unknown offset kind")}
	}

	span := r.Stream.Interval().Distance()
	if span.Less(fixedpoint.Zero64()) {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "stream has an inverted interval")}
	}
	placed := interval.New(lo, lo.Add(span))
	r.Stream.SetInterval(placed)

	entry := &trackEntry{id: r.Track, stream: r.Stream}
	entry.globalIdx = m.tree.Insert(toSegInterval(placed), entry)
	m.tracks[r.Track] = entry
	return nil
}

func (m *Mixer) applyRemoveTrack(r RemoveTrackRequest) Response {
	entry, ok := m.tracks[r.Track]
	if !ok {
		return ErrorResponse{Err: mixerr.New(mixerr.TrackNotFound, "track %d not found", r.Track)}
	}
	m.tree.RemoveByIndex(entry.globalIdx)
	delete(m.tracks, r.Track)
	return MixerEventResponse{Kind: TrackStopped, Track: r.Track}
}

func (m *Mixer) applySeek(r SeekRequest) Response {
	var targetMs fixedpoint.FP64
	switch r.Offset.Tag {
	case OffsetStart:
		targetMs = fixedpoint.FromUint64(r.Offset.OffsetMs)
	case OffsetCurrent:
		targetMs = m.playhead.Millis()
	default:
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "unknown offset kind")}
	}
	if targetMs.Less(fixedpoint.Zero64()) {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "seek to negative time")}
	}

	m.playhead = interval.FromMillis(targetMs, m.outputSampleRate)
	target := m.playhead
	for _, entry := range m.tracks {
		entry.stream.Seek(target)
	}
	return nil
}

func (m *Mixer) applyMutate(r MutateMixerRequest) Response {
	if r.Mutate == nil {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "MutateMixer requires a closure")}
	}
	if r.Track == NullTrackID {
		if err := r.Mutate(m); err != nil {
			return ErrorResponse{Err: err}
		}
		return nil
	}
	entry, ok := m.tracks[r.Track]
	if !ok {
		return ErrorResponse{Err: mixerr.New(mixerr.TrackNotFound, "track %d not found", r.Track)}
	}
	if err := r.Mutate(entry.stream); err != nil {
		return ErrorResponse{Err: err}
	}
	return nil
}

func (m *Mixer) applySetSpeed(r SetSpeedRequest) Response {
	if !r.Speed.Greater(fixedpoint.Zero32()) {
		return ErrorResponse{Err: mixerr.New(mixerr.InvalidArgument, "speed must be > 0")}
	}
	m.speed = r.Speed
	return nil
}

// MixAudio performs one tick: remove the tracks the previous tick marked
// dead, drain the already-dequeued request batch in order, mix every stream
// active at the current playhead into pcm with saturating addition,
// silence-fill the rest, advance the playhead scaled by speed, and report
// any tracks whose interval just ended.
func (m *Mixer) MixAudio(pcm audio.PCMSlice, requests []Request) []Response {
	m.pruneDead()

	var responses []Response
	for _, req := range requests {
		if resp := m.ApplyRequest(req); resp != nil {
			responses = append(responses, resp)
		}
	}

	for i := range pcm.Data {
		pcm.Data[i] = 0
	}

	framesPerChannel := pcm.SamplesPerChannel()
	playheadMs := m.playhead.Millis()
	active := m.tree.SearchScalar(playheadMs.AsInt64())

	scratch := m.ensureScratch(len(pcm.Data) * 2)
	mixBuf := m.ensureMixBuf(len(pcm.Data))

	for _, ga := range active {
		entry := ga.Data
		if entry.stream.IsDead() {
			continue
		}
		if !entry.started {
			entry.started = true
			responses = append(responses, MixerEventResponse{Kind: TrackStarted, Track: entry.id})
		}

		for i := range mixBuf {
			mixBuf[i] = 0
		}
		streamPCM := audio.PCMSlice{Data: mixBuf, SampleRate: pcm.SampleRate, Channels: pcm.Channels}
		entry.stream.PullSamples(scratch, streamPCM)

		for i, v := range mixBuf {
			sum := pcm.Data[i] + v
			if sum > 1 {
				sum = 1
			} else if sum < -1 {
				sum = -1
			}
			pcm.Data[i] = sum
		}
	}

	advanceFrames := fixedpoint.FromInt64(int64(framesPerChannel)).Mul(fixedpoint.FromFP32(m.speed))
	m.playhead = m.playhead.AddFrames(advanceFrames.AsInt64())

	for id, entry := range m.tracks {
		if entry.stream.IsDead() {
			continue
		}
		if entry.stream.Interval().Hi.LessEq(m.playhead.Millis()) {
			entry.stream.MarkDead()
			responses = append(responses, MixerEventResponse{Kind: TrackStopped, Track: id})
		}
	}

	return responses
}

// pruneDead removes tracks marked dead by an earlier tick from the index.
// MixAudio calls it first, before draining requests, so a stream found dead
// in one tick stays in m.tracks until the start of the next one.
func (m *Mixer) pruneDead() {
	for id, entry := range m.tracks {
		if entry.stream.IsDead() {
			m.tree.RemoveByIndex(entry.globalIdx)
			delete(m.tracks, id)
		}
	}
}

func (m *Mixer) Playhead() interval.SampleTime { return m.playhead }
func (m *Mixer) Speed() fixedpoint.FP32        { return m.speed }
func (m *Mixer) TrackCount() int               { return len(m.tracks) }
