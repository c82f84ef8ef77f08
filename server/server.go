package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/K3das/scribe/asr"
	"github.com/K3das/scribe/asr/elevenlabs"
	"github.com/K3das/scribe/store"
	"github.com/K3das/scribe/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	DefaultMaxAudioSize = 1024 * 1024 * 25

	defaultUsageLimit = 50
	maxUsageLimit     = 500

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	// how long a usage write may take after the request is done
	usageWriteTimeout = 5 * time.Second
)

type Transcriber interface {
	Name() string
	Model() string
	Diarize() bool
	SupportedLanguages() []string
	Transcribe(ctx context.Context, req elevenlabs.Request) (*asr.ASROutput, error)
}

type UsageRecorder interface {
	RecordTranscription(ctx context.Context, u store.Usage) error
	RecentTranscriptions(ctx context.Context, limit int) ([]store.Usage, error)
}

type Server struct {
	log *zap.Logger

	asr   Transcriber
	usage UsageRecorder

	maxAudioSize int64

	engine *gin.Engine
	http   *http.Server
}

type ServerOptions struct {
	ParentLogger *zap.Logger
	ASR          Transcriber

	ListenAddr   string
	MaxAudioSize int64
}

type ServerExtraOptions func(*Server)

// WithUsageRecorder enables the usage ledger and GET /api/usage
func WithUsageRecorder(recorder UsageRecorder) ServerExtraOptions {
	return func(s *Server) {
		s.usage = recorder
	}
}

func NewServer(options ServerOptions, extraOptions ...ServerExtraOptions) *Server {
	s := &Server{
		log:          options.ParentLogger.Named("server"),
		asr:          options.ASR,
		maxAudioSize: options.MaxAudioSize,
	}
	if s.maxAudioSize <= 0 {
		s.maxAudioSize = DefaultMaxAudioSize
	}
	for _, option := range extraOptions {
		option(s)
	}

	s.engine = gin.New()
	s.engine.Use(requestID(), s.requestLogger(), s.recovery())

	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api/stt")
	api.GET("/:provider", s.handleProviderInfo)
	api.POST("/:provider", s.handleTranscribe)

	if s.usage != nil {
		s.engine.GET("/api/usage", s.handleUsage)
	}

	s.http = &http.Server{
		Addr:              options.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is done, then shuts down gracefully. A panic is
// returned as an error.
func (s *Server) Run(ctx context.Context) (err error) {
	defer utils.PanicRecovery(s.log, func(recovered any) {
		err = fmt.Errorf("server panicked: %v", recovered)
	})

	listener, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}

	s.log.Info("listening", zap.String("addr", listener.Addr().String()))

	errc := make(chan error, 1)
	go func() {
		errc <- s.http.Serve(listener)
	}()

	select {
	case serveErr := <-errc:
		if errors.Is(serveErr, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", serveErr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}
