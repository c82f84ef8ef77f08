package asr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"auto", ""},
		{"AUTO", ""},
		{"en", "eng"},
		{"en-US", "eng"},
		{"pt_BR", "por"},
		{"zh", "cmn"},
		{" De ", "deu"},
		{"eng", "eng"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveLanguage(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLanguageUnsupported(t *testing.T) {
	for _, in := range []string{"xx", "klingon", "-en"} {
		_, err := ResolveLanguage(in)

		var langErr *UnsupportedLanguageError
		require.ErrorAs(t, err, &langErr, in)
		assert.Equal(t, in, langErr.Language)
	}
}

func TestSupportedLanguages(t *testing.T) {
	langs := SupportedLanguages()
	require.NotEmpty(t, langs)
	assert.Equal(t, LanguageAuto, langs[0])
	assert.Contains(t, langs, "en")
	assert.Contains(t, langs, "sw")
	assert.IsIncreasing(t, langs[1:])

	for _, l := range langs {
		_, err := ResolveLanguage(l)
		assert.NoError(t, err, l)
	}
}

func TestSegments(t *testing.T) {
	out := &ASROutput{
		Words: []Word{
			{Text: "Hi", Start: 0, End: 0.3, Type: WordTypeWord, SpeakerID: "speaker_0"},
			{Text: " ", Start: 0.3, End: 0.4, Type: WordTypeSpacing, SpeakerID: "speaker_0"},
			{Text: "there", Start: 0.4, End: 0.8, Type: WordTypeWord, SpeakerID: "speaker_0"},
			{Text: " ", Start: 0.8, End: 1.0, Type: WordTypeSpacing, SpeakerID: "speaker_1"},
			{Text: "(laughs)", Start: 1.0, End: 1.5, Type: WordTypeAudioEvent, SpeakerID: "speaker_1"},
			{Text: " ", Start: 1.5, End: 1.6, Type: WordTypeSpacing},
			{Text: "hello", Start: 1.6, End: 2.0, Type: WordTypeWord, SpeakerID: "speaker_1"},
		},
	}

	assert.Equal(t, []Segment{
		{SpeakerID: "speaker_0", Start: 0, End: 0.8, Text: "Hi there"},
		{SpeakerID: "speaker_1", Start: 1.0, End: 2.0, Text: "(laughs) hello"},
	}, out.Segments())
}

func TestSegmentsWithoutSpeakers(t *testing.T) {
	out := &ASROutput{
		Words: []Word{
			{Text: "Hi", Type: WordTypeWord},
			{Text: " ", Type: WordTypeSpacing},
			{Text: "there", Type: WordTypeWord},
		},
	}
	assert.Nil(t, out.Segments())
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestTransportError(t *testing.T) {
	bg := context.Background()

	cancelled, cancel := context.WithCancel(bg)
	cancel()

	expired, cancel := context.WithTimeout(bg, 0)
	defer cancel()

	assert.ErrorIs(t, TransportError(cancelled, context.Canceled), ErrCancelled)
	assert.ErrorIs(t, TransportError(expired, context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, TransportError(bg, fmt.Errorf("dial: %w", timeoutErr{})), ErrTimeout)

	err := TransportError(bg, errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrCancelled)
	assert.Equal(t, OutcomeNetwork, Classify(err))
	assert.ErrorContains(t, err, "connection refused")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeSuccess},
		{&AuthError{StatusCode: 401}, OutcomeAuth},
		{fmt.Errorf("wrapped: %w", &UnsupportedLanguageError{Language: "xx"}), OutcomeUnsupportedLanguage},
		{ErrEmptyAudio, OutcomeEmptyAudio},
		{fmt.Errorf("%w: %w", ErrTimeout, context.DeadlineExceeded), OutcomeTimeout},
		{fmt.Errorf("%w: %w", ErrCancelled, context.Canceled), OutcomeCancelled},
		{fmt.Errorf("%w: %w", ErrNetwork, errors.New("no such host")), OutcomeNetwork},
		{&ProviderError{Provider: "x", StatusCode: 500}, OutcomeProvider},
		{errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err), fmt.Sprint(tt.err))
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "elevenlabs", StatusCode: 503, Detail: "overloaded"}
	assert.Equal(t, "elevenlabs: provider error [503] overloaded", err.Error())

	cause := errors.New("unexpected EOF")
	err = &ProviderError{Provider: "elevenlabs", StatusCode: 200, Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "elevenlabs: provider error [200]: unexpected EOF", err.Error())
}
