package mixer

import (
	"github.com/rapidaai/mixengine/internal/audio"
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
)

// TrackID is an opaque identifier minted monotonically by the host-side
// context. The zero value is reserved and means "the mixer itself" when it
// appears as a MutateMixer target.
type TrackID uint64

// NullTrackID is reserved for "mutate the mixer globally" rather than a
// specific track.
const NullTrackID TrackID = 0

// OffsetKindTag distinguishes an absolute placement from "now".
type OffsetKindTag int

const (
	OffsetStart OffsetKindTag = iota
	OffsetCurrent
)

// OffsetKind is either an absolute millisecond position (Start) or the
// playhead at request-processing time (Current).
type OffsetKind struct {
	Tag      OffsetKindTag
	OffsetMs uint64
}

func AtStart(offsetMs uint64) OffsetKind { return OffsetKind{Tag: OffsetStart, OffsetMs: offsetMs} }
func AtCurrent() OffsetKind              { return OffsetKind{Tag: OffsetCurrent} }

// Request is the closed set of operations the host may enqueue for the
// audio agent to apply. The mixer switches on concrete type; the unexported
// isRequest marker method keeps the set closed to types outside this
// package.
type Request interface {
	isRequest()
}

type AddTrackRequest struct {
	Track  TrackID
	Offset OffsetKind
	Stream audio.Stream
}

type RemoveTrackRequest struct {
	Track TrackID
}

type SeekRequest struct {
	Offset OffsetKind
}

// MutateMixerRequest applies a single-shot closure either to a specific
// track's stream (Track != NullTrackID, called with that audio.Stream) or
// to the mixer itself (Track == NullTrackID, called with *Mixer). The
// closure's parameter type therefore depends on Track; callers type-assert.
type MutateMixerRequest struct {
	Track  TrackID
	Mutate func(target any) error
}

type SetSpeedRequest struct {
	Speed fixedpoint.FP32
}

type FetchMixerTimeRequest struct{}

func (AddTrackRequest) isRequest()       {}
func (RemoveTrackRequest) isRequest()    {}
func (SeekRequest) isRequest()           {}
func (MutateMixerRequest) isRequest()    {}
func (SetSpeedRequest) isRequest()       {}
func (FetchMixerTimeRequest) isRequest() {}

// Response is the closed set of events the audio agent emits back to the
// host.
type Response interface {
	isResponse()
}

type MixerTimeResponse struct {
	Time interval.SampleTime
}

type MixerEventKind int

const (
	TrackStopped MixerEventKind = iota
	TrackStarted
)

type MixerEventResponse struct {
	Kind  MixerEventKind
	Track TrackID
}

type ErrorResponse struct {
	Err error
}

func (MixerTimeResponse) isResponse()  {}
func (MixerEventResponse) isResponse() {}
func (ErrorResponse) isResponse()      {}
