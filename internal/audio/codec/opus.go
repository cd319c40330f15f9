package codec

import (
	"io"

	"gopkg.in/hraban/opus.v2"
)

// OpusDecoder adapts hraban/opus.v2's packet-oriented decoder to the
// Decoder contract. Opus itself has no notion of a byte stream or a file
// position; the caller (outside the core, per the demux exclusion) is
// responsible for splitting a container into individual packets. Seeking is
// therefore packet-granular: it lands on the start of whichever packet
// covers the requested sample, not the exact sample.
type OpusDecoder struct {
	dec            *opus.Decoder
	packets        [][]byte
	samplesPerPkt  int
	packetCursor   int
	frameScratch   []float32
	sampleRate     uint32
	channels       uint32
}

// NewOpusDecoder constructs a decoder over a clip already split into
// fixed-duration Opus packets (e.g. 20ms frames at the given rate).
func NewOpusDecoder(packets [][]byte, sampleRate, channels uint32, samplesPerPacket int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(int(sampleRate), int(channels))
	if err != nil {
		return nil, err
	}
	return &OpusDecoder{
		dec:           dec,
		packets:       packets,
		samplesPerPkt: samplesPerPacket,
		frameScratch:  make([]float32, samplesPerPacket*int(channels)),
		sampleRate:    sampleRate,
		channels:      channels,
	}, nil
}

func (d *OpusDecoder) Decode(into []float32) (int, error) {
	written := 0
	for written < len(into) {
		if d.packetCursor >= len(d.packets) {
			return written, io.EOF
		}
		n, err := d.dec.DecodeFloat32(d.packets[d.packetCursor], d.frameScratch)
		if err != nil {
			return written, err
		}
		d.packetCursor++

		produced := n * int(d.channels)
		copyLen := produced
		if written+copyLen > len(into) {
			copyLen = len(into) - written
		}
		copy(into[written:written+copyLen], d.frameScratch[:copyLen])
		written += copyLen
	}
	return written, nil
}

func (d *OpusDecoder) Seek(samplePos uint64) error {
	if d.samplesPerPkt == 0 {
		d.packetCursor = 0
		return nil
	}
	pkt := int(samplePos) / d.samplesPerPkt
	if pkt > len(d.packets) {
		pkt = len(d.packets)
	}
	d.packetCursor = pkt
	return nil
}

func (d *OpusDecoder) SampleRate() uint32 { return d.sampleRate }
func (d *OpusDecoder) Channels() uint32   { return d.channels }

func (d *OpusDecoder) TotalSamplesPerChannel() uint64 {
	return uint64(len(d.packets) * d.samplesPerPkt)
}
