// Package main provides the player entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/firefly/internal/app/loader"
	"github.com/osa030/firefly/internal/app/playback"
	"github.com/osa030/firefly/internal/app/queue"
	"github.com/osa030/firefly/internal/infra/audio"
	"github.com/osa030/firefly/internal/infra/config"
	"github.com/osa030/firefly/internal/infra/logger"
	"github.com/osa030/firefly/internal/infra/picker"
	"github.com/osa030/firefly/internal/infra/transcode"
	"github.com/osa030/firefly/internal/ui"
)

var (
	app        = kingpin.New("firefly", "Firefly terminal audio player")
	configPath = app.Flag("config", "Path to config file").Default(config.DefaultPath()).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file").Default(logger.DefaultFile()).String()
	logOutput  = app.Flag("log-output", "Log destination; use stderr with a redirect for headless debugging").Default("file").Enum("file", "stderr")
	dir        = app.Flag("dir", "Enqueue every audio file in a folder").Short('d').ExistingDir()
	loop       = app.Flag("loop", "Start with looping enabled").Short('l').Bool()
	files      = app.Arg("files", "Tracks to enqueue").Strings()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// The terminal belongs to the UI, so logs go to a file unless asked otherwise.
	loggerConfig := logger.Config{
		Output: *logOutput,
		Level:  "info",
		File:   *logfile,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "firefly: %v\n", err)
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "firefly: %v\n", err)
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run wires the player and blocks until the UI exits. Using a separate
// function ensures defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	spk, err := audio.NewSpeaker(audio.Config{
		SampleRate:      cfg.Audio.SampleRate,
		Buffer:          cfg.Audio.Buffer(),
		ResampleQuality: cfg.Audio.ResampleQuality,
		InitialVolume:   cfg.Player.InitialVolume,
	})
	if err != nil {
		return errors.Wrap(err, "failed to open audio output")
	}
	defer spk.Close()

	tr, err := transcode.NewFromConfig(cfg.Transcoder)
	if err != nil {
		return errors.Wrap(err, "failed to create transcoder")
	}
	defer func() {
		if err := transcode.Remove(tr); err != nil {
			zlog.Warn().Err(err).Msg("Failed to remove converted file")
		}
	}()

	engine := loader.NewEngine(
		loader.Config{CommandBuffer: cfg.Player.CommandBuffer},
		spk,
		loader.DecoderFunc(audio.Decode),
		tr,
		audio.TagReader{},
	)
	engine.Start()
	defer engine.Close()

	ctrl := playback.NewController(playback.Config{
		EndOfTrackThreshold: cfg.Player.EndOfTrackThreshold(),
		SeekStep:            cfg.Player.SeekStep(),
		VolumeStep:          cfg.Player.VolumeStep,
		MaxVolume:           cfg.Player.MaxVolume,
		InitialVolume:       cfg.Player.InitialVolume,
		EventBuffer:         16,
	}, spk, engine, queue.New())
	defer ctrl.Close()

	ctrl.SetLooping(*loop)
	if len(*files) > 0 {
		added := ctrl.Enqueue(*files...)
		zlog.Info().Msgf("Enqueued %d of %d track(s) from the command line", added, len(*files))
	}
	if *dir != "" {
		if _, err := ctrl.EnqueueDir(*dir); err != nil {
			zlog.Warn().Err(err).Msgf("Failed to enqueue folder %s", *dir)
		}
	}

	pk := picker.NewZenity(picker.Config{
		Command:  cfg.Picker.Command,
		StartDir: cfg.Picker.StartDir,
	})

	zlog.Info().Msg("Player started")
	program := tea.NewProgram(
		ui.New(ctx, ctrl, pk, cfg.Player.PollInterval()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "ui error")
	}

	zlog.Info().Msg("Player stopped")
	return nil
}
