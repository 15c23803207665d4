package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/go-ticket-auth/internal/domain"
)

// Required sample format for all speaker-recognition audio.
const (
	formatPCM     = 1
	channelsMono  = 1
	sampleRate16k = 16000
	bitsPerSample = 16
)

// ValidatePCM16Mono checks that b is a WAV container holding PCM, 16 kHz,
// 16-bit, mono audio with a non-empty data chunk. Anything else is rejected
// with a domain.ErrBadRequest-wrapped error so handlers surface a client error.
func ValidatePCM16Mono(b []byte) error {
	if len(b) < 12 || !bytes.Equal(b[0:4], []byte("RIFF")) || !bytes.Equal(b[8:12], []byte("WAVE")) {
		return fmt.Errorf("not a WAV container: %w", domain.ErrBadRequest)
	}

	var sawFmt, sawData bool
	// Walk the RIFF chunks. The fmt chunk carries the sample format, the data
	// chunk the audio payload.
	for off := 12; off+8 <= len(b); {
		chunkID := string(b[off : off+4])
		chunkLen := int(binary.LittleEndian.Uint32(b[off+4 : off+8]))
		body := off + 8
		if body+chunkLen > len(b) {
			return fmt.Errorf("truncated %q chunk: %w", chunkID, domain.ErrBadRequest)
		}
		switch chunkID {
		case "fmt ":
			if chunkLen < 16 {
				return fmt.Errorf("short fmt chunk: %w", domain.ErrBadRequest)
			}
			format := binary.LittleEndian.Uint16(b[body : body+2])
			channels := binary.LittleEndian.Uint16(b[body+2 : body+4])
			rate := binary.LittleEndian.Uint32(b[body+4 : body+8])
			bits := binary.LittleEndian.Uint16(b[body+14 : body+16])
			if format != formatPCM {
				return fmt.Errorf("encoding must be PCM: %w", domain.ErrBadRequest)
			}
			if channels != channelsMono {
				return fmt.Errorf("audio must be mono: %w", domain.ErrBadRequest)
			}
			if rate != sampleRate16k {
				return fmt.Errorf("sample rate must be 16 kHz: %w", domain.ErrBadRequest)
			}
			if bits != bitsPerSample {
				return fmt.Errorf("sample format must be 16 bit: %w", domain.ErrBadRequest)
			}
			sawFmt = true
		case "data":
			if chunkLen == 0 {
				return fmt.Errorf("empty audio data: %w", domain.ErrBadRequest)
			}
			sawData = true
		}
		// Chunks are word-aligned.
		off = body + chunkLen + chunkLen%2
	}
	if !sawFmt || !sawData {
		return fmt.Errorf("missing fmt or data chunk: %w", domain.ErrBadRequest)
	}
	return nil
}
