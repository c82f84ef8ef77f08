package media

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SpeechContentHeader carries the host's description of the posted audio
const SpeechContentHeader = "X-Speech-Content"

type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
	FormatOGG Format = "ogg"
)

type Codec string

const (
	CodecPCM  Codec = "pcm"
	CodecMP3  Codec = "mp3"
	CodecOpus Codec = "opus"
)

var (
	SupportedFormats     = []Format{FormatWAV, FormatMP3, FormatOGG}
	SupportedCodecs      = []Codec{CodecPCM, CodecMP3, CodecOpus}
	SupportedBitRates    = []int{16}
	SupportedSampleRates = []int{8000, 16000, 22050, 44100, 48000}
	SupportedChannels    = []int{1, 2}
)

var ErrInvalidMetadata = errors.New("invalid speech metadata")

type Metadata struct {
	Format     Format `json:"format"`
	Codec      Codec  `json:"codec"`
	SampleRate int    `json:"sample_rate"`
	BitRate    int    `json:"bit_rate"`
	Channels   int    `json:"channel"`
	// optional, empty means use the configured language
	Language string `json:"language,omitempty"`
}

// ParseSpeechMetadata parses the X-Speech-Content header:
//
//	format=wav; codec=pcm; sample_rate=16000; bit_rate=16; channel=1; language=en
func ParseSpeechMetadata(header string) (Metadata, error) {
	var m Metadata
	seen := map[string]bool{}

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return Metadata{}, fmt.Errorf("%w: malformed pair %q", ErrInvalidMetadata, part)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		var err error
		switch key {
		case "format":
			m.Format = Format(strings.ToLower(value))
		case "codec":
			m.Codec = Codec(strings.ToLower(value))
		case "sample_rate":
			m.SampleRate, err = strconv.Atoi(value)
		case "bit_rate":
			m.BitRate, err = strconv.Atoi(value)
		case "channel":
			m.Channels, err = strconv.Atoi(value)
		case "language":
			m.Language = value
		default:
			continue // unknown keys are ignored
		}
		if err != nil {
			return Metadata{}, fmt.Errorf("%w: parsing %s: %w", ErrInvalidMetadata, key, err)
		}
		seen[key] = true
	}

	for _, required := range []string{"format", "codec", "sample_rate", "bit_rate", "channel"} {
		if !seen[required] {
			return Metadata{}, fmt.Errorf("%w: missing %s", ErrInvalidMetadata, required)
		}
	}

	return m, nil
}

// Validate checks the metadata against what the provider accepts
func (m Metadata) Validate() error {
	switch {
	case !slices.Contains(SupportedFormats, m.Format):
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidMetadata, m.Format)
	case !slices.Contains(SupportedCodecs, m.Codec):
		return fmt.Errorf("%w: unsupported codec %q", ErrInvalidMetadata, m.Codec)
	case !slices.Contains(SupportedBitRates, m.BitRate):
		return fmt.Errorf("%w: unsupported bit rate %d", ErrInvalidMetadata, m.BitRate)
	case !slices.Contains(SupportedSampleRates, m.SampleRate):
		return fmt.Errorf("%w: unsupported sample rate %d", ErrInvalidMetadata, m.SampleRate)
	case !slices.Contains(SupportedChannels, m.Channels):
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidMetadata, m.Channels)
	}
	return nil
}

// Prepare returns the bytes to upload and a filename for them. Raw PCM is put
// in a WAV container, everything else is passed through as-is.
func Prepare(m Metadata, audio []byte) ([]byte, string) {
	if m.Codec == CodecPCM && !IsWAV(audio) {
		return WrapPCM(audio, m.SampleRate, m.Channels, m.BitRate), "audio.wav"
	}
	return audio, "audio." + string(m.Format)
}
