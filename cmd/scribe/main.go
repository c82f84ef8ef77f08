package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/K3das/scribe/asr/elevenlabs"
	"github.com/K3das/scribe/config"
	"github.com/K3das/scribe/server"
	"github.com/K3das/scribe/store"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var CommitHash = ""

const logLevelEnvKey = config.EnvironmentPrefix + "LOG_LEVEL"
const configPathEnvKey = config.EnvironmentPrefix + "CONFIG"

func createLog() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = ""

	logLevelValue := os.Getenv(logLevelEnvKey)
	logLevel, logLevelErr := zapcore.ParseLevel(logLevelValue)

	if logLevelErr != nil {
		logLevel = zapcore.InfoLevel
	}

	rawLog := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		logLevel,
	)).Named("scribe")

	if CommitHash != "" {
		rawLog = rawLog.With(zap.String("commit", CommitHash))
	}

	if logLevelErr != nil && logLevelValue != "" {
		rawLog.With(zap.String(logLevelEnvKey, logLevelValue)).Warn("unable to parse log level, using INFO")
	}

	return rawLog
}

// run returns the exit code so its deferred cleanup runs before os.Exit
func main() {
	os.Exit(run())
}

func run() int {
	// a missing .env is fine
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv(configPathEnvKey), "path to the YAML config file")
	flag.Parse()

	parentLogger := createLog()
	defer parentLogger.Sync()

	log := parentLogger.Named("main")
	log.With(zap.String("min_log_level", parentLogger.Level().String())).Info("starting")

	if parentLogger.Level() > zapcore.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", zap.Error(err))
		return 1
	}

	asrClient, err := elevenlabs.NewClient(cfg.ElevenLabs, elevenlabs.WithLogger(parentLogger))
	if err != nil {
		log.Error("failed to create elevenlabs client", zap.Error(err))
		return 1
	}

	log.With(
		zap.String("model", asrClient.Model()),
		zap.String("language", cfg.ElevenLabs.Language),
		zap.Bool("diarize", cfg.ElevenLabs.Diarize),
		zap.Bool("tag_audio_events", cfg.ElevenLabs.TagAudioEvents),
	).Info("provider configured")

	var serverOptions []server.ServerExtraOptions
	if cfg.PostgresDSN != "" {
		s := store.NewStore(context.Background(), parentLogger)
		err := s.Connect(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to connect store", zap.Error(err))
			return 1
		}
		defer s.Close()

		serverOptions = append(serverOptions, server.WithUsageRecorder(s))
	}

	httpServer := server.NewServer(server.ServerOptions{
		ParentLogger: parentLogger,
		ASR:          asrClient,
		ListenAddr:   cfg.Server.ListenAddr,
		MaxAudioSize: cfg.Server.MaxAudioSize,
	}, serverOptions...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g := errgroup.Group{}

	// HTTP server
	g.Go(func() error {
		defer cancel()

		return httpServer.Run(ctx)
	})

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-shutdownSignal:
		cancel()
		log.Info("received signal, shutting down")
	case <-ctx.Done():
		log.Info("context done, shutting down")
	}

	err = g.Wait()
	if err != nil {
		log.Error("error group error", zap.Error(err))
		return 1
	}

	return 0
}
