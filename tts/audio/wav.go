package audio

import (
	"encoding/binary"
	"fmt"

	"github.com/learnlink/learnlink/tts"
)

const (
	riffHeaderSize  = 12 // "RIFF" + size + "WAVE"
	chunkHeaderSize = 8  // id + size
	wavHeaderSize   = 44
	pcmFormatTag    = 1
)

// ParseWAV extracts the PCM samples of a 16-bit PCM WAV file. Metadata
// chunks such as LIST are skipped. The returned format is read from the
// fmt chunk.
func ParseWAV(data []byte) ([]byte, Format, error) {
	if len(data) < riffHeaderSize || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, Format{}, fmt.Errorf("%w: missing RIFF/WAVE header", tts.ErrInvalidAudioFormat)
	}

	var (
		format  Format
		haveFmt bool
		offset  = riffHeaderSize
		bits    uint16
	)
	for offset+chunkHeaderSize <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + chunkHeaderSize

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return nil, Format{}, fmt.Errorf("%w: short fmt chunk", tts.ErrInvalidAudioFormat)
			}
			if tag := binary.LittleEndian.Uint16(data[body : body+2]); tag != pcmFormatTag {
				return nil, Format{}, fmt.Errorf("%w: format tag %d is not PCM", tts.ErrInvalidAudioFormat, tag)
			}
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = binary.LittleEndian.Uint16(data[body+14 : body+16])
			if bits != BitDepth {
				return nil, Format{}, fmt.Errorf("%w: %d-bit samples", tts.ErrInvalidAudioFormat, bits)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, Format{}, fmt.Errorf("%w: data chunk before fmt chunk", tts.ErrInvalidAudioFormat)
			}
			end := body + size
			// Streaming encoders (espeak-ng --stdout) write a placeholder size.
			if end > len(data) || size == 0 {
				end = len(data)
			}
			return data[body:end], format, nil
		}

		offset = body + size
		if size%2 != 0 {
			offset++
		}
	}
	return nil, Format{}, fmt.Errorf("%w: no data chunk", tts.ErrInvalidAudioFormat)
}

// DecodeWAV parses a WAV file and checks it matches want.
func DecodeWAV(data []byte, want Format) ([]byte, error) {
	pcm, got, err := ParseWAV(data)
	if err != nil {
		return nil, err
	}
	if got.SampleRate != want.SampleRate {
		return nil, fmt.Errorf("%w: got %d Hz, want %d Hz", tts.ErrSampleRate, got.SampleRate, want.SampleRate)
	}
	if got.Channels != want.Channels {
		return nil, fmt.Errorf("%w: got %d channels, want %d", tts.ErrInvalidAudioFormat, got.Channels, want.Channels)
	}
	return pcm, nil
}

// EncodeWAV wraps PCM in a canonical 44-byte WAV header.
func EncodeWAV(pcm []byte, f Format) []byte {
	out := make([]byte, wavHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(wavHeaderSize-8+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatTag)
	binary.LittleEndian.PutUint16(out[22:24], uint16(f.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(f.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(f.BytesPerSecond()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(f.FrameSize()))
	binary.LittleEndian.PutUint16(out[34:36], BitDepth)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)
	return out
}
