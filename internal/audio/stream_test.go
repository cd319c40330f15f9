package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEnvelopeAttackRampsMonotonicallyUp(t *testing.T) {
	const frames = 1200
	data := make([]float32, frames)
	for i := range data {
		data[i] = 1
	}
	applyEnvelopeAndGain(data, frames, 1, 0, 1, 10000, 1000, 0, 1)

	for i := 1; i < 1000; i++ {
		require.GreaterOrEqualf(t, data[i], data[i-1], "attack gain decreased at frame %d", i)
	}
}

func TestApplyEnvelopeReleaseRampsMonotonicallyDown(t *testing.T) {
	const frames = 1200
	data := make([]float32, frames)
	for i := range data {
		data[i] = 1
	}
	applyEnvelopeAndGain(data, frames, 1, 9000, 1, 10000, 0, 1000, 1)

	for i := 1; i < 1000; i++ {
		require.LessOrEqualf(t, data[i], data[i-1], "release gain increased at frame %d", i)
	}
}

func TestApplyEnvelopeIsIdentityWithNoAttackOrRelease(t *testing.T) {
	const frames = 50
	data := make([]float32, frames)
	for i := range data {
		data[i] = 0.5
	}
	applyEnvelopeAndGain(data, frames, 1, 0, 10, 10000, 0, 0, 1)
	for _, v := range data {
		require.InDelta(t, 0.5, v, 1e-6)
	}
}

func TestDownmixUpmixMonoToStereoReplicates(t *testing.T) {
	group := make([]float32, 2)
	group[0] = 0.7
	downmixUpmix(group, 1, 2)
	require.InDelta(t, 0.7, group[0], 1e-6)
	require.InDelta(t, 0.7, group[1], 1e-6)
}

func TestDownmixUpmixStereoToMonoAverages(t *testing.T) {
	group := []float32{1.0, 0.0}
	downmixUpmix(group, 2, 1)
	require.InDelta(t, 0.5, group[0], 1e-6)
}
