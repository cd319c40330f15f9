package codec

import (
	"fmt"

	"github.com/zaf/g711"
)

// G711Law selects which of the two companding laws a G711Decoder decodes.
type G711Law int

const (
	G711ALaw G711Law = iota
	G711ULaw
)

// G711Decoder adapts zaf/g711's whole-buffer codec functions to the
// Decoder contract. G711 has no internal framing to seek within beyond a
// sample index, so the entire clip is law-decoded once up front into a
// flat PCM buffer and Decode/Seek operate as a cursor over it.
type G711Decoder struct {
	pcm        []int16
	cursor     uint64
	sampleRate uint32
	channels   uint32
}

// NewG711Decoder decodes an entire mono G711 payload (telephony audio is
// conventionally 8kHz mono) into PCM.
func NewG711Decoder(encoded []byte, law G711Law, sampleRate uint32) (*G711Decoder, error) {
	var pcm []int16
	switch law {
	case G711ALaw:
		pcm = g711.DecodeAlaw(encoded)
	case G711ULaw:
		pcm = g711.DecodeUlaw(encoded)
	default:
		return nil, fmt.Errorf("codec: unknown g711 law %d", law)
	}
	return &G711Decoder{pcm: pcm, sampleRate: sampleRate, channels: 1}, nil
}

func (d *G711Decoder) Decode(into []float32) (int, error) {
	remaining := uint64(len(d.pcm)) - d.cursor
	n := uint64(len(into))
	if n > remaining {
		n = remaining
	}
	for i := uint64(0); i < n; i++ {
		into[i] = float32(d.pcm[d.cursor+i]) / 32768.0
	}
	d.cursor += n
	return int(n), nil
}

func (d *G711Decoder) Seek(samplePos uint64) error {
	if samplePos > uint64(len(d.pcm)) {
		samplePos = uint64(len(d.pcm))
	}
	d.cursor = samplePos
	return nil
}

func (d *G711Decoder) SampleRate() uint32 { return d.sampleRate }
func (d *G711Decoder) Channels() uint32   { return d.channels }

func (d *G711Decoder) TotalSamplesPerChannel() uint64 { return uint64(len(d.pcm)) }
