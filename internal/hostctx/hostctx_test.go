package hostctx

import (
	"testing"

	"github.com/rapidaai/mixengine/internal/audio"
	"github.com/rapidaai/mixengine/internal/mixer"
	"github.com/rapidaai/mixengine/pkg/fixedpoint"
	"github.com/rapidaai/mixengine/pkg/interval"
	"github.com/stretchr/testify/require"
)

func testWave() *audio.ImplicitWave {
	return audio.NewImplicitWave(audio.WaveSine, 440, 48000, 1, interval.FromMillis(0, 1000), 0, 0, 1, 0)
}

func TestEnqueueAddTrackMintsMonotonicTrackIDs(t *testing.T) {
	h := NewHandle(8, 8, nil)
	id1, err := h.EnqueueAddTrack(mixer.AtStart(0), testWave())
	require.NoError(t, err)
	id2, err := h.EnqueueAddTrack(mixer.AtStart(0), testWave())
	require.NoError(t, err)
	require.Equal(t, mixer.TrackID(1), id1)
	require.Equal(t, mixer.TrackID(2), id2)
}

func TestCriticalEnqueueSignalsFailureWhenQueueFull(t *testing.T) {
	h := NewHandle(1, 8, nil)
	require.NoError(t, h.EnqueueSeek(mixer.AtStart(0)))
	err := h.EnqueueSeek(mixer.AtStart(0))
	require.Error(t, err)
}

func TestNonCriticalEnqueueDropsSilentlyWhenQueueFull(t *testing.T) {
	h := NewHandle(1, 8, nil)
	require.NoError(t, h.EnqueueSeek(mixer.AtStart(0)))
	// Queue is now full of one critical request; the non-critical
	// FetchMixerTime is simply skipped rather than rejected.
	h.EnqueueFetchMixerTime()

	batch := h.Drain()
	require.Len(t, batch, 1)
	_, isSeek := batch[0].(mixer.SeekRequest)
	require.True(t, isSeek)
}

func TestDrainReturnsRequestsInEnqueueOrder(t *testing.T) {
	h := NewHandle(8, 8, nil)
	require.NoError(t, h.EnqueueSeek(mixer.AtStart(1)))
	require.NoError(t, h.EnqueueRemoveTrack(mixer.TrackID(1)))
	require.NoError(t, h.EnqueueSetSpeed(fixedpoint.FromInt32_32(1)))

	batch := h.Drain()
	require.Len(t, batch, 3)
	_, ok0 := batch[0].(mixer.SeekRequest)
	_, ok1 := batch[1].(mixer.RemoveTrackRequest)
	_, ok2 := batch[2].(mixer.SetSpeedRequest)
	require.True(t, ok0)
	require.True(t, ok1)
	require.True(t, ok2)

	require.Empty(t, h.Drain())
}

func TestPollReturnsResponsesInPublishOrder(t *testing.T) {
	h := NewHandle(8, 8, nil)
	h.Publish(
		mixer.MixerEventResponse{Kind: mixer.TrackStarted, Track: 1},
		mixer.MixerEventResponse{Kind: mixer.TrackStopped, Track: 1},
	)
	batch := h.Poll()
	require.Len(t, batch, 2)
	first := batch[0].(mixer.MixerEventResponse)
	second := batch[1].(mixer.MixerEventResponse)
	require.Equal(t, mixer.TrackStarted, first.Kind)
	require.Equal(t, mixer.TrackStopped, second.Kind)
	require.Empty(t, h.Poll())
}

func TestPublishEvictsOldestResponseOnOverflow(t *testing.T) {
	h := NewHandle(8, 1, nil)
	h.Publish(mixer.MixerTimeResponse{})
	h.Publish(mixer.MixerEventResponse{Kind: mixer.TrackStarted, Track: 7})

	batch := h.Poll()
	require.Len(t, batch, 1)
	ev, ok := batch[0].(mixer.MixerEventResponse)
	require.True(t, ok)
	require.Equal(t, mixer.TrackID(7), ev.Track)
}

func TestSessionIDIsPopulatedAndUniquePerHandle(t *testing.T) {
	h1 := NewHandle(1, 1, nil)
	h2 := NewHandle(1, 1, nil)
	require.NotEqual(t, h1.SessionID, h2.SessionID)
}
