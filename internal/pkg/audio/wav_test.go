package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/go-ticket-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildWAV assembles a minimal WAV file with the given format parameters and
// payload length.
func buildWAV(format, channels uint16, rate uint32, bits uint16, dataLen int) []byte {
	var buf bytes.Buffer
	data := make([]byte, dataLen)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+8+16+8+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, format)
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, rate)
	binary.Write(&buf, binary.LittleEndian, rate*uint32(channels)*uint32(bits)/8) // byte rate
	binary.Write(&buf, binary.LittleEndian, channels*bits/8)                      // block align
	binary.Write(&buf, binary.LittleEndian, bits)

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(data)

	return buf.Bytes()
}

func TestValidatePCM16Mono_Valid(t *testing.T) {
	require.NoError(t, ValidatePCM16Mono(buildWAV(1, 1, 16000, 16, 3200)))
}

func TestValidatePCM16Mono_NotWAV(t *testing.T) {
	err := ValidatePCM16Mono([]byte("this is not audio"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidatePCM16Mono_WrongRate(t *testing.T) {
	err := ValidatePCM16Mono(buildWAV(1, 1, 44100, 16, 3200))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidatePCM16Mono_Stereo(t *testing.T) {
	err := ValidatePCM16Mono(buildWAV(1, 2, 16000, 16, 3200))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidatePCM16Mono_NotPCM(t *testing.T) {
	// 3 = IEEE float encoding
	err := ValidatePCM16Mono(buildWAV(3, 1, 16000, 16, 3200))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidatePCM16Mono_EightBit(t *testing.T) {
	err := ValidatePCM16Mono(buildWAV(1, 1, 16000, 8, 3200))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestValidatePCM16Mono_EmptyData(t *testing.T) {
	err := ValidatePCM16Mono(buildWAV(1, 1, 16000, 16, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
