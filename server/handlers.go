package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/K3das/scribe/asr"
	"github.com/K3das/scribe/asr/elevenlabs"
	"github.com/K3das/scribe/media"
	"github.com/K3das/scribe/store"
	"github.com/K3das/scribe/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	resultSuccess = "success"
	resultError   = "error"

	// nginx's code for a client that went away, there is no standard one
	statusClientClosedRequest = 499
)

type transcribeResponse struct {
	Text     string        `json:"text"`
	Result   string        `json:"result"`
	Language string        `json:"language,omitempty"`
	Segments []asr.Segment `json:"segments,omitempty"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type usageResponse struct {
	Transcriptions []store.Usage `json:"transcriptions"`
}

type providerInfoResponse struct {
	Name        string         `json:"name"`
	Languages   []string       `json:"languages"`
	Formats     []media.Format `json:"formats"`
	Codecs      []media.Codec  `json:"codecs"`
	BitRates    []int          `json:"bit_rates"`
	SampleRates []int          `json:"sample_rates"`
	Channels    []int          `json:"channels"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) checkProvider(c *gin.Context) bool {
	if c.Param("provider") == s.asr.Name() {
		return true
	}
	c.AbortWithStatusJSON(http.StatusNotFound, transcribeResponse{
		Result:  resultError,
		Error:   "unknown_provider",
		Message: "unknown provider " + c.Param("provider"),
	})
	return false
}

func (s *Server) handleProviderInfo(c *gin.Context) {
	if !s.checkProvider(c) {
		return
	}

	c.JSON(http.StatusOK, providerInfoResponse{
		Name:        s.asr.Name(),
		Languages:   s.asr.SupportedLanguages(),
		Formats:     media.SupportedFormats,
		Codecs:      media.SupportedCodecs,
		BitRates:    media.SupportedBitRates,
		SampleRates: media.SupportedSampleRates,
		Channels:    media.SupportedChannels,
	})
}

func (s *Server) handleTranscribe(c *gin.Context) {
	if !s.checkProvider(c) {
		return
	}

	ctx, log := utils.LogContextWith(
		c.Request.Context(),
		utils.GetLogFromContext(c.Request.Context(), s.log),
		zap.String("provider", s.asr.Name()),
		zap.String("model", s.asr.Model()),
	)
	c.Request = c.Request.WithContext(ctx)

	meta, err := media.ParseSpeechMetadata(c.GetHeader(media.SpeechContentHeader))
	if err == nil {
		err = meta.Validate()
	}
	if err != nil {
		s.fail(c, http.StatusBadRequest, "metadata", err)
		return
	}

	audio, err := utils.ReadAllLimit(c.Request.Body, s.maxAudioSize)
	if errors.Is(err, utils.ErrIOLimitReached) {
		s.fail(c, http.StatusRequestEntityTooLarge, "too_large", err)
		return
	} else if err != nil {
		s.fail(c, http.StatusBadRequest, "read", err)
		return
	}
	if len(audio) == 0 {
		s.fail(c, http.StatusBadRequest, asr.OutcomeEmptyAudio, asr.ErrEmptyAudio)
		return
	}

	data, filename := media.Prepare(meta, audio)

	start := time.Now()
	output, err := s.asr.Transcribe(ctx, elevenlabs.Request{
		Audio:    data,
		Filename: filename,
		Language: meta.Language,
	})
	outcome := asr.Classify(err)

	s.recordUsage(ctx, store.Usage{
		RequestID:         c.GetString(requestIDKey),
		Model:             s.asr.Model(),
		Language:          languageOf(output, meta.Language),
		AudioBytes:        int64(len(data)),
		ProcessingSeconds: time.Since(start).Seconds(),
		Outcome:           outcome,
	})

	if err != nil {
		s.fail(c, statusForOutcome(outcome), outcome, err)
		return
	}

	log.Info("transcribed",
		zap.String("language", output.Language),
		zap.Int("text_length", len(output.Text)),
		zap.Duration("took", time.Since(start)),
	)

	resp := transcribeResponse{
		Text:     output.Text,
		Result:   resultSuccess,
		Language: output.Language,
	}
	if s.asr.Diarize() {
		resp.Segments = output.Segments()
	}
	if resp.Text == "" {
		resp.Result = resultError
		resp.Error = "empty_transcript"
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUsage(c *gin.Context) {
	limit := defaultUsageLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.fail(c, http.StatusBadRequest, "limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = min(n, maxUsageLimit)
	}

	usages, err := s.usage.RecentTranscriptions(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, "usage", err)
		return
	}
	if usages == nil {
		usages = []store.Usage{}
	}

	c.JSON(http.StatusOK, usageResponse{Transcriptions: usages})
}

func (s *Server) fail(c *gin.Context, status int, kind string, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(status, transcribeResponse{
		Result:  resultError,
		Error:   kind,
		Message: err.Error(),
	})
}

func statusForOutcome(outcome string) int {
	switch outcome {
	case asr.OutcomeUnsupportedLanguage, asr.OutcomeEmptyAudio:
		return http.StatusBadRequest
	case asr.OutcomeTimeout:
		return http.StatusGatewayTimeout
	case asr.OutcomeCancelled:
		return statusClientClosedRequest
	case asr.OutcomeAuth, asr.OutcomeProvider, asr.OutcomeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// recordUsage writes to the ledger without letting a failure reach the caller
func (s *Server) recordUsage(ctx context.Context, u store.Usage) {
	if s.usage == nil {
		return
	}

	// the request context may already be cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), usageWriteTimeout)
	defer cancel()

	if err := s.usage.RecordTranscription(ctx, u); err != nil {
		utils.GetLogFromContext(ctx, s.log).Error("failed to record usage", zap.Error(err))
	}
}

func languageOf(output *asr.ASROutput, requested string) string {
	if output != nil && output.Language != "" {
		return output.Language
	}
	return requested
}
