package main

import (
	"context"
	"flag"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	fastmixer "github.com/STS-Dev-Team/platform-frameworks-av"
	"github.com/STS-Dev-Team/platform-frameworks-av/config"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/clock"
	"github.com/STS-Dev-Team/platform-frameworks-av/internal/futex"
	"github.com/STS-Dev-Team/platform-frameworks-av/sink"
	"github.com/STS-Dev-Team/platform-frameworks-av/softmix"
	"github.com/STS-Dev-Team/platform-frameworks-av/track"
)

const defaultConfigPath = "config/fastmixerd.yaml"

// closableSink is the concrete sink.Oto/sink.Wav contract main needs:
// fastmixer.Sink for the worker, plus Close for clean shutdown.
type closableSink interface {
	fastmixer.Sink
	Close() error
}

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}
	logger.Info("starting fastmixerd",
		"instance_id", cfg.InstanceID,
		"frame_count", cfg.Cycle.FrameCount,
		"sample_rate", cfg.Cycle.SampleRate,
		"sink_kind", cfg.Sink.Kind,
		"tracks", len(cfg.Tracks),
	)

	outputSink, err := buildSink(cfg)
	if err != nil {
		logger.Error("failed to build output sink", "error", err)
		os.Exit(1)
	}
	defer outputSink.Close()

	fastTracks, trackMask, err := buildTracks(cfg)
	if err != nil {
		logger.Error("failed to build fixture tracks", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	worker := fastmixer.New(softmix.New(), clock.New(), futex.New(), logger)

	dump := fastmixer.NewDumpState()
	var coldFutexWord uint32

	worker.Publish(&fastmixer.StateSnapshot{
		Command:       fastmixer.CmdInitial,
		FastTracksGen: 1,
		ColdFutexAddr: &coldFutexWord,
		Dump:          dump,
	})

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- worker.Run(ctx) }()

	go runController(ctx, worker, dump, cfg, outputSink, fastTracks, trackMask, logger)
	go logDumpPeriodically(ctx, worker, logger)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		worker.Publish(&fastmixer.StateSnapshot{Command: fastmixer.CmdExit})
		cancel()
		runErr = <-runErrCh
	case runErr = <-runErrCh:
		logger.Error("worker loop exited unexpectedly", "error", runErr)
	}

	if runErr != nil && ctx.Err() == nil {
		os.Exit(1)
	}
	logger.Info("fastmixerd stopped")
}

// runController publishes the steady-state MIX_WRITE snapshot once the
// fixture tracks and sink are ready, mimicking a real controller's
// warm-up-then-steady-state sequencing.
func runController(ctx context.Context, worker *fastmixer.Worker, dump *fastmixer.DumpState, cfg *config.Config, outputSink fastmixer.Sink, fastTracks [fastmixer.MaxTracks]fastmixer.FastTrack, trackMask uint32, logger *slog.Logger) {
	worker.Publish(&fastmixer.StateSnapshot{
		Command:       fastmixer.CmdMixWrite,
		FrameCount:    cfg.Cycle.FrameCount,
		TrackMask:     trackMask,
		Tracks:        fastTracks,
		FastTracksGen: 2,
		OutputSink:    outputSink,
		OutputSinkGen: 1,
		Dump:          dump,
	})
	logger.Info("controller published steady-state MIX_WRITE", "track_mask", trackMask)

	<-ctx.Done()
}

// logDumpPeriodically mirrors the teacher's health-endpoint pattern
// with a log line instead of an HTTP handler: every two seconds it
// reports the worker's DumpState counters.
func logDumpPeriodically(ctx context.Context, worker *fastmixer.Worker, logger *slog.Logger) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d := worker.Dump()
			if d == nil {
				continue
			}
			logger.Info("worker dump",
				"command", d.CommandName(),
				"frames_written", d.FramesWritten(),
				"num_tracks", d.NumTracks(),
				"write_errors", d.WriteErrors(),
				"underruns", d.Underruns(),
				"overruns", d.Overruns(),
			)
		}
	}
}

func buildSink(cfg *config.Config) (closableSink, error) {
	switch cfg.Sink.Kind {
	case "wav":
		return sink.NewWav(cfg.Sink.Path, cfg.Cycle.SampleRate)
	default:
		return sink.NewOto(cfg.Cycle.SampleRate)
	}
}

func buildTracks(cfg *config.Config) ([fastmixer.MaxTracks]fastmixer.FastTrack, uint32, error) {
	var tracks [fastmixer.MaxTracks]fastmixer.FastTrack
	var mask uint32

	for i, t := range cfg.Tracks {
		var provider fastmixer.BufferProvider
		switch t.Kind {
		case "sine":
			amplitude := dbToLinear(t.AmplitudeDB)
			provider = track.NewSine(cfg.Cycle.SampleRate, t.FreqHz, amplitude)
		case "wav":
			wf, err := track.OpenWavFile(t.Path)
			if err != nil {
				return tracks, 0, err
			}
			provider = wf
		}

		tracks[i] = fastmixer.FastTrack{
			BufferProvider: provider,
			VolumeProvider: track.NewStaticVolume(t.VolumeL, t.VolumeR),
			Generation:     1,
		}
		mask |= 1 << uint(i)
	}
	return tracks, mask, nil
}

// dbToLinear converts a decibel amplitude to a 0..1 linear scale,
// defaulting to full scale when db is 0 (the config zero-value).
func dbToLinear(db float64) float64 {
	if db == 0 {
		return 1.0
	}
	return math.Pow(10, db/20)
}
