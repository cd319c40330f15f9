// Package hostctx is the thread-safe boundary between the host agent (UI,
// control) and the audio agent (the realtime callback). It owns the two
// bounded FIFO queues the component design calls out as the only shared
// mutable state; everything else the mixer touches is single-owner once a
// request handing it over has been processed.
package hostctx

import (
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rapidaai/mixengine/internal/audio"
	"github.com/rapidaai/mixengine/internal/commons"
	"github.com/rapidaai/mixengine/internal/mixer"
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/mixerr"
)

// Handle is the host-side API: enqueue requests, poll responses. A Handle
// is safe for concurrent use by multiple host-side goroutines; the audio
// agent never calls into it except through Drain/Publish below.
type Handle struct {
	SessionID uuid.UUID

	requests  chan mixer.Request
	responses chan mixer.Response
	nextTrack atomic.Uint64
	logger    commons.Logger
}

func NewHandle(requestCapacity, responseCapacity int, logger commons.Logger) *Handle {
	return &Handle{
		SessionID: uuid.New(),
		requests:  make(chan mixer.Request, requestCapacity),
		responses: make(chan mixer.Response, responseCapacity),
		logger:    logger,
	}
}

func (h *Handle) nextTrackID() mixer.TrackID {
	return mixer.TrackID(h.nextTrack.Add(1))
}

// enqueueCritical never drops silently: a full queue returns QueueFull to
// the caller instead.
func (h *Handle) enqueueCritical(req mixer.Request) error {
	select {
	case h.requests <- req:
		return nil
	default:
		return mixerr.New(mixerr.QueueFull, "request queue full, rejected %T", req)
	}
}

// enqueueNonCritical is used only for FetchMixerTime: if the queue is full
// the request is simply skipped, since a later FetchMixerTime will return
// an equally valid answer and there is no caller-visible failure to report.
func (h *Handle) enqueueNonCritical(req mixer.Request) {
	select {
	case h.requests <- req:
	default:
		if h.logger != nil {
			h.logger.Warnf("hostctx: dropping non-critical request %T, queue full", req)
		}
	}
}

func (h *Handle) EnqueueAddTrack(offset mixer.OffsetKind, stream audio.Stream) (mixer.TrackID, error) {
	id := h.nextTrackID()
	if err := h.enqueueCritical(mixer.AddTrackRequest{Track: id, Offset: offset, Stream: stream}); err != nil {
		return 0, err
	}
	return id, nil
}

func (h *Handle) EnqueueRemoveTrack(id mixer.TrackID) error {
	return h.enqueueCritical(mixer.RemoveTrackRequest{Track: id})
}

func (h *Handle) EnqueueSeek(offset mixer.OffsetKind) error {
	return h.enqueueCritical(mixer.SeekRequest{Offset: offset})
}

func (h *Handle) EnqueueMutateMixer(track mixer.TrackID, mutate func(target any) error) error {
	return h.enqueueCritical(mixer.MutateMixerRequest{Track: track, Mutate: mutate})
}

func (h *Handle) EnqueueSetSpeed(speed fixedpoint.FP32) error {
	return h.enqueueCritical(mixer.SetSpeedRequest{Speed: speed})
}

func (h *Handle) EnqueueFetchMixerTime() {
	h.enqueueNonCritical(mixer.FetchMixerTimeRequest{})
}

// Drain is called once per mix_audio tick by the audio agent: it returns
// every request currently queued, in enqueue order, without blocking.
func (h *Handle) Drain() []mixer.Request {
	var batch []mixer.Request
	for {
		select {
		case req := <-h.requests:
			batch = append(batch, req)
		default:
			return batch
		}
	}
}

// Publish is called by the audio agent after a tick to hand its responses
// to the host queue. MixerTimeResponse is non-critical: on overflow the
// oldest queued entry is evicted to make room, since the audio callback
// must never block. Every other response kind is critical by the same
// reasoning applied to the response side: there is no synchronous caller
// on the audio thread to signal failure to, so the same eviction applies
// rather than dropping the new (most relevant) event.
func (h *Handle) Publish(responses ...mixer.Response) {
	for _, resp := range responses {
		select {
		case h.responses <- resp:
			continue
		default:
		}
		select {
		case <-h.responses:
		default:
		}
		select {
		case h.responses <- resp:
		default:
			if h.logger != nil {
				h.logger.Warnf("hostctx: response queue full and could not evict, dropping %T", resp)
			}
		}
	}
}

// Poll is called by the host agent: it returns every response currently
// queued, in emission order, without blocking.
func (h *Handle) Poll() []mixer.Response {
	var batch []mixer.Response
	for {
		select {
		case resp := <-h.responses:
			batch = append(batch, resp)
		default:
			return batch
		}
	}
}
