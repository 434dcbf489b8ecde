// Package audio manages the transient audio resources produced by completed
// synthesis jobs: revocable handles with exactly-once release semantics, and
// the RIFF/WAVE codec used by the deterministic fallback path.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// WAV container constants for 16-bit PCM.
const (
	BitDepth       = 16
	bytesPerSample = BitDepth / 8
	wavHeaderSize  = 44
	pcmFormatTag   = 1
)

// Format describes the shape of PCM audio inside a WAV container.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BlockAlign returns the number of bytes per sample frame.
func (f Format) BlockAlign() int {
	return f.Channels * f.BitDepth / 8
}

// EncodeWAV wraps raw 16-bit little-endian PCM in a RIFF/WAVE container.
// The header fields are derived from sampleRate and channels so downstream
// playback never needs to special-case synthetic audio.
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	buf := make([]byte, wavHeaderSize+len(pcm))
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+len(pcm)))
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], BitDepth)

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(len(pcm)))
	copy(buf[wavHeaderSize:], pcm)

	return buf
}

// ParseWAV reads the header of a RIFF/WAVE container and returns its format
// and the raw PCM payload.
func ParseWAV(data []byte) (Format, []byte, error) {
	if len(data) < wavHeaderSize {
		return Format{}, nil, errors.New("wav: data shorter than header")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return Format{}, nil, errors.New("wav: missing RIFF/WAVE magic")
	}
	if string(data[12:16]) != "fmt " {
		return Format{}, nil, errors.New("wav: missing fmt chunk")
	}
	if tag := binary.LittleEndian.Uint16(data[20:22]); tag != pcmFormatTag {
		return Format{}, nil, fmt.Errorf("wav: unsupported format tag %d", tag)
	}

	f := Format{
		Channels:   int(binary.LittleEndian.Uint16(data[22:24])),
		SampleRate: int(binary.LittleEndian.Uint32(data[24:28])),
		BitDepth:   int(binary.LittleEndian.Uint16(data[34:36])),
	}
	if string(data[36:40]) != "data" {
		return Format{}, nil, errors.New("wav: missing data chunk")
	}

	size := int(binary.LittleEndian.Uint32(data[40:44]))
	if wavHeaderSize+size > len(data) {
		return Format{}, nil, fmt.Errorf("wav: data chunk size %d exceeds payload", size)
	}
	return f, data[wavHeaderSize : wavHeaderSize+size], nil
}

// PCMDuration computes the play time of raw 16-bit PCM data.
func PCMDuration(dataLen, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := dataLen / (channels * bytesPerSample)
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}
