package resampler

import resamplelib "github.com/tphakala/go-audio-resampler"

// Quality selects the resample algorithm's accuracy/cost tradeoff.
type Quality int

const (
	QualityLinear Quality = iota
	QualitySinc
)

// Library resamples via tphakala/go-audio-resampler. A fresh converter is
// built per call since clip rate pairs vary per stream and the library's
// state is cheap to construct; the alternative (one converter per stream)
// would require threading stream lifecycle into this package.
type Library struct {
	Quality Quality
}

func (l Library) Resample(in []float32, srcRate, dstRate uint32, channels int) []float32 {
	if srcRate == dstRate {
		return in
	}
	quality := resamplelib.Linear
	if l.Quality == QualitySinc {
		quality = resamplelib.Sinc
	}
	conv := resamplelib.New(quality, int(srcRate), int(dstRate), channels)
	return conv.Process(in)
}
