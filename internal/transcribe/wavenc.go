package transcribe

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// encodeWAV renders float32 samples in [-1, 1] as a 16-bit mono WAV.
// The input slice is only read, never modified.
func encodeWAV(samples []float32, sampleRate uint32) ([]byte, error) {
	ints := make([]int, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		ints[i] = int(s * 32767)
	}

	buf := &seekBuffer{}
	enc := wav.NewEncoder(buf, int(sampleRate), 16, 1, 1)
	err := enc.Write(&audio.IntBuffer{
		Data:           ints,
		Format:         &audio.Format{NumChannels: 1, SampleRate: int(sampleRate)},
		SourceBitDepth: 16,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe: encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("transcribe: finalize wav: %w", err)
	}
	return buf.data, nil
}

// seekBuffer is an in-memory io.WriteSeeker. The wav encoder needs to
// seek back and patch chunk sizes into the header on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("seekBuffer: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("seekBuffer: negative position")
	}
	b.pos = int(pos)
	return pos, nil
}
