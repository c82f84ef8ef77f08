package media

import (
	"bytes"
	"encoding/binary"
)

const wavHeaderSize = 44

// IsWAV reports whether data already starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// WrapPCM puts little-endian signed PCM samples in a canonical 44 byte WAV
// header. The samples are not touched.
func WrapPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	dataSize := len(pcm)
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	wav := make([]byte, wavHeaderSize+dataSize)
	le := binary.LittleEndian

	copy(wav[0:4], "RIFF")
	le.PutUint32(wav[4:8], uint32(36+dataSize))
	copy(wav[8:12], "WAVE")

	copy(wav[12:16], "fmt ")
	le.PutUint32(wav[16:20], 16) // PCM fmt chunk size
	le.PutUint16(wav[20:22], 1)  // PCM
	le.PutUint16(wav[22:24], uint16(channels))
	le.PutUint32(wav[24:28], uint32(sampleRate))
	le.PutUint32(wav[28:32], uint32(byteRate))
	le.PutUint16(wav[32:34], uint16(blockAlign))
	le.PutUint16(wav[34:36], uint16(bitsPerSample))

	copy(wav[36:40], "data")
	le.PutUint32(wav[40:44], uint32(dataSize))
	copy(wav[44:], pcm)

	return wav
}
