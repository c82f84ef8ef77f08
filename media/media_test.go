package media

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpeechMetadata(t *testing.T) {
	m, err := ParseSpeechMetadata("format=wav; codec=pcm; sample_rate=16000; bit_rate=16; channel=1; language=en-US")
	require.NoError(t, err)

	assert.Equal(t, Metadata{
		Format:     FormatWAV,
		Codec:      CodecPCM,
		SampleRate: 16000,
		BitRate:    16,
		Channels:   1,
		Language:   "en-US",
	}, m)
	assert.NoError(t, m.Validate())
}

func TestParseSpeechMetadataLenient(t *testing.T) {
	m, err := ParseSpeechMetadata(" FORMAT=OGG;codec=Opus ;sample_rate=48000;bit_rate=16;channel=2;extra=1;")
	require.NoError(t, err)
	assert.Equal(t, FormatOGG, m.Format)
	assert.Equal(t, CodecOpus, m.Codec)
	assert.Equal(t, 2, m.Channels)
	assert.Empty(t, m.Language)
}

func TestParseSpeechMetadataErrors(t *testing.T) {
	tests := map[string]string{
		"empty":         "",
		"missing codec": "format=wav; sample_rate=16000; bit_rate=16; channel=1",
		"no equals":     "format=wav; codec; sample_rate=16000; bit_rate=16; channel=1",
		"bad number":    "format=wav; codec=pcm; sample_rate=fast; bit_rate=16; channel=1",
	}

	for name, header := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpeechMetadata(header)
			assert.ErrorIs(t, err, ErrInvalidMetadata)
		})
	}
}

func TestMetadataValidate(t *testing.T) {
	valid := Metadata{Format: FormatWAV, Codec: CodecPCM, SampleRate: 16000, BitRate: 16, Channels: 1}
	require.NoError(t, valid.Validate())

	mutations := map[string]func(*Metadata){
		"format":      func(m *Metadata) { m.Format = "flac" },
		"codec":       func(m *Metadata) { m.Codec = "aac" },
		"bit rate":    func(m *Metadata) { m.BitRate = 24 },
		"sample rate": func(m *Metadata) { m.SampleRate = 11025 },
		"channels":    func(m *Metadata) { m.Channels = 6 },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			m := valid
			mutate(&m)
			assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)
		})
	}
}

func TestWrapPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	wav := WrapPCM(pcm, 16000, 2, 16)

	require.Len(t, wav, wavHeaderSize+len(pcm))
	assert.True(t, IsWAV(wav))

	le := binary.LittleEndian
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.EqualValues(t, 36+len(pcm), le.Uint32(wav[4:8]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.EqualValues(t, 1, le.Uint16(wav[20:22]))
	assert.EqualValues(t, 2, le.Uint16(wav[22:24]))
	assert.EqualValues(t, 16000, le.Uint32(wav[24:28]))
	assert.EqualValues(t, 64000, le.Uint32(wav[28:32]))
	assert.EqualValues(t, 4, le.Uint16(wav[32:34]))
	assert.EqualValues(t, 16, le.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.EqualValues(t, len(pcm), le.Uint32(wav[40:44]))
	assert.Equal(t, pcm, wav[44:])
}

func TestPrepare(t *testing.T) {
	pcmMeta := Metadata{Format: FormatWAV, Codec: CodecPCM, SampleRate: 16000, BitRate: 16, Channels: 1}

	data, name := Prepare(pcmMeta, []byte{0, 0, 1, 1})
	assert.Equal(t, "audio.wav", name)
	assert.True(t, IsWAV(data))
	assert.Len(t, data, wavHeaderSize+4)

	already := WrapPCM([]byte{0, 0}, 16000, 1, 16)
	data, _ = Prepare(pcmMeta, already)
	assert.Equal(t, already, data)

	opus := []byte("OggS....")
	data, name = Prepare(Metadata{Format: FormatOGG, Codec: CodecOpus}, opus)
	assert.Equal(t, "audio.ogg", name)
	assert.Equal(t, opus, data)
}
