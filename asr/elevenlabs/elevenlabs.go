package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/K3das/scribe/asr"
	"github.com/K3das/scribe/utils"
	"go.uber.org/zap"
)

const ProviderName = "elevenlabs"

// used for the model name in the usage ledger
const apiPrefix = ProviderName + "-"

const (
	DefaultModel   = "scribe_v1"
	DefaultAPIURL  = "https://api.elevenlabs.io"
	DefaultTimeout = 30 * time.Second

	transcribePath = "/v1/speech-to-text"

	// transcripts are small, anything bigger than this is not a transcript
	maxResponseSize = 1024 * 1024 * 8
	maxDetailLength = 512
)

type Options struct {
	APIKey         string        `yaml:"api_key" env:"API_KEY"`
	Model          string        `yaml:"model" env:"MODEL"`
	Language       string        `yaml:"language" env:"LANGUAGE"`
	Diarize        bool          `yaml:"diarize" env:"DIARIZE"`
	TagAudioEvents bool          `yaml:"tag_audio_events" env:"TAG_AUDIO_EVENTS"`
	APIURL         string        `yaml:"api_url" env:"API_URL"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type Client struct {
	apiKey         string
	model          string
	language       string
	diarize        bool
	tagAudioEvents bool
	apiURL         string
	timeout        time.Duration

	log  *zap.Logger
	http *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

func WithLogger(parentLogger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = parentLogger.Named("elevenlabs")
	}
}

// NewClient creates a client from options, filling in defaults for the
// optional fields. The configured language is checked here so a bad config
// fails at startup rather than on the first request.
func NewClient(options Options, extraOptions ...ClientOption) (*Client, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if _, err := asr.ResolveLanguage(options.Language); err != nil {
		return nil, fmt.Errorf("configured language: %w", err)
	}

	c := &Client{
		apiKey:         options.APIKey,
		model:          options.Model,
		language:       options.Language,
		diarize:        options.Diarize,
		tagAudioEvents: options.TagAudioEvents,
		apiURL:         strings.TrimRight(options.APIURL, "/"),
		timeout:        options.Timeout,

		log:  zap.NewNop(),
		http: http.DefaultClient,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.apiURL == "" {
		c.apiURL = DefaultAPIURL
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", c.timeout)
	}

	for _, option := range extraOptions {
		option(c)
	}

	return c, nil
}

func (c *Client) Name() string {
	return ProviderName
}

// Model is the model name as reported in ASROutput.ModelName
func (c *Client) Model() string {
	return apiPrefix + c.model
}

func (c *Client) Diarize() bool {
	return c.diarize
}

func (c *Client) SupportedLanguages() []string {
	return asr.SupportedLanguages()
}

type Request struct {
	Audio []byte
	// Filename is sent with the upload so the provider can sniff the
	// container, defaults to audio.wav
	Filename string
	// Language overrides the configured language when set
	Language string
}

type transcriptionResponse struct {
	LanguageCode        string  `json:"language_code"`
	LanguageProbability float64 `json:"language_probability"`
	Text                string  `json:"text"`
	Words               []struct {
		Text      string  `json:"text"`
		Start     float64 `json:"start"`
		End       float64 `json:"end"`
		Type      string  `json:"type"`
		SpeakerID string  `json:"speaker_id"`
	} `json:"words"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

type errorDetail struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Run implements asr.SpeechRecognitionAPI using the configured language.
func (c *Client) Run(ctx context.Context, data []byte) (*asr.ASROutput, error) {
	return c.Transcribe(ctx, Request{Audio: data})
}

// Transcribe sends one buffer of audio to the speech-to-text endpoint and
// returns the transcript. It never retries.
func (c *Client) Transcribe(ctx context.Context, req Request) (*asr.ASROutput, error) {
	if len(req.Audio) == 0 {
		return nil, asr.ErrEmptyAudio
	}

	language := req.Language
	if language == "" {
		language = c.language
	}
	languageCode, err := asr.ResolveLanguage(language)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log := utils.GetLogFromContext(ctx, c.log).With(
		zap.String("model", c.model),
		zap.String("language_code", languageCode),
		zap.Int("audio_size", len(req.Audio)),
	)

	body, contentType, err := c.buildForm(req, languageCode)
	if err != nil {
		return nil, fmt.Errorf("building form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+transcribePath, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("xi-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	log.Debug("sending transcription request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, asr.TransportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := utils.ReadAllLimit(resp.Body, maxResponseSize)
	if errors.Is(err, utils.ErrIOLimitReached) {
		return nil, &asr.ProviderError{Provider: ProviderName, StatusCode: resp.StatusCode, Err: err}
	} else if err != nil {
		return nil, asr.TransportError(ctx, fmt.Errorf("reading response: %w", err))
	}

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := c.handleError(resp.StatusCode, respBody, language)
		log.Debug("transcription request failed", zap.Error(err))
		return nil, err
	}

	var parsed transcriptionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &asr.ProviderError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decoding response json: %w", err),
		}
	}

	log.Debug("transcription request done", zap.Int("text_length", len(parsed.Text)))

	output := &asr.ASROutput{
		Text:                strings.TrimSpace(parsed.Text),
		ModelName:           c.Model(),
		Language:            parsed.LanguageCode,
		LanguageProbability: parsed.LanguageProbability,
		Words:               make([]asr.Word, 0, len(parsed.Words)),
	}
	for _, w := range parsed.Words {
		output.Words = append(output.Words, asr.Word{
			Text:      w.Text,
			Start:     w.Start,
			End:       w.End,
			Type:      asr.WordType(w.Type),
			SpeakerID: w.SpeakerID,
		})
	}

	return output, nil
}

func (c *Client) buildForm(req Request, languageCode string) (*bytes.Buffer, string, error) {
	filename := req.Filename
	if filename == "" {
		filename = "audio.wav"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}

	fields := [][2]string{
		{"model_id", c.model},
		{"diarize", strconv.FormatBool(c.diarize)},
		{"tag_audio_events", strconv.FormatBool(c.tagAudioEvents)},
	}
	if languageCode != "" {
		fields = append(fields, [2]string{"language_code", languageCode})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) handleError(statusCode int, body []byte, language string) error {
	status, detail := parseErrorDetail(body)

	switch {
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden && status == "invalid_api_key":
		return &asr.AuthError{StatusCode: statusCode, Detail: detail}
	case (statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity) &&
		(status == "invalid_language_code" || status == "unsupported_language"):
		return &asr.UnsupportedLanguageError{Language: language}
	}

	return &asr.ProviderError{
		Provider:   ProviderName,
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// parseErrorDetail pulls a status and message out of the "detail" field,
// which is an object, a list of validation errors, or a plain string
// depending on the endpoint and failure.
func parseErrorDetail(body []byte) (string, string) {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Detail) == 0 {
		return "", truncate(strings.TrimSpace(string(body)))
	}

	var object errorDetail
	if err := json.Unmarshal(resp.Detail, &object); err == nil {
		return object.Status, truncate(object.Message)
	}

	var text string
	if err := json.Unmarshal(resp.Detail, &text); err == nil {
		return "", truncate(text)
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(resp.Detail, &list); err == nil {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			msgs = append(msgs, item.Msg)
		}
		return "", truncate(strings.Join(msgs, "; "))
	}

	return "", truncate(string(resp.Detail))
}

// truncate cuts s to at most maxDetailLength bytes on a rune boundary
func truncate(s string) string {
	if len(s) <= maxDetailLength {
		return s
	}
	cut := maxDetailLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
