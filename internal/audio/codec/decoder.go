// Package codec narrows whatever compressed-audio library backs an
// ExplicitWave clip down to the handful of operations the mixer needs:
// decode into an in-memory float32 buffer and seek. Container/demuxing
// concerns (OGG, WAV framing) stay outside the core, same as the codecs
// themselves; this package only adapts already-demuxed payloads.
package codec

// Decoder is the narrow interface ExplicitWave pulls samples through. All
// implementations must operate purely from in-memory buffers: the audio
// callback may never block on file or network I/O.
type Decoder interface {
	// Decode writes up to len(into) interleaved float32 samples (across
	// Channels() channels) and returns how many were written. Returning
	// fewer than len(into)/Channels() frames signals end of stream.
	Decode(into []float32) (int, error)
	// Seek repositions the decode cursor to the given sample offset
	// (per-channel frame index from the start of the clip).
	Seek(samplePos uint64) error
	SampleRate() uint32
	Channels() uint32
	// TotalSamplesPerChannel reports the clip's decodable length.
	TotalSamplesPerChannel() uint64
}
