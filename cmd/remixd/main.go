// Package main is the entry point for the remixd daemon.
// remixd analyzes a track into a beat similarity graph and plays an endless
// remix of it, controlled by clients over a unix socket and by OS media keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/remixd/remixd/internal/analysis"
	"github.com/remixd/remixd/internal/audio"
	"github.com/remixd/remixd/internal/config"
	"github.com/remixd/remixd/internal/ipc"
	"github.com/remixd/remixd/internal/media"
	"github.com/remixd/remixd/internal/remix"
)

// Version is set at build time via ldflags
var Version = "dev"

// Flags holds command line options.
type Flags struct {
	SocketPath string
	ConfigDir  string
	Track      string
	Verbose    bool
}

func main() {
	flags := parseFlags()

	if flags.Verbose {
		log.Printf("remixd version %s starting...", Version)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := run(ctx, flags); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func parseFlags() *Flags {
	flags := &Flags{}

	flag.StringVar(&flags.SocketPath, "socket", "", "IPC socket path (default: auto-generated based on UID)")
	flag.StringVar(&flags.ConfigDir, "config", "", "Configuration directory (default: ~/.config/remixd)")
	flag.StringVar(&flags.Track, "track", "", "Track to load and start remixing immediately")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.Parse()

	if flags.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		flags.ConfigDir = homeDir + "/.config/remixd"
	}

	if flags.SocketPath == "" {
		flags.SocketPath = fmt.Sprintf("/tmp/remixd-%d.sock", os.Getuid())
	}

	return flags
}

func run(ctx context.Context, flags *Flags) error {
	configMgr, err := config.NewManager(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := configMgr.Get()

	// Media session is best effort; the daemon works without it
	mediaSession, err := media.NewSession()
	if err != nil {
		log.Printf("[MEDIA] Warning: failed to initialize media session: %v", err)
		log.Printf("[MEDIA] Continuing without OS media integration")
		mediaSession = media.NewNoOpSession()
	} else {
		log.Printf("[MEDIA] Media session initialized successfully")
	}
	defer mediaSession.Close()

	output, err := audio.NewOtoOutput(cfg.Audio.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	defer output.Close()
	output.SetVolume(cfg.Audio.DefaultVolume)

	scheduler := newScheduler(output, cfg.Playback)
	pipeline := newPipeline(cfg.Analysis)
	decoder := newDecoder(cfg.Audio.SampleRate)

	core := ipc.NewCore(decoder, pipeline, scheduler)
	core.StateListener = func(playing bool) {
		state := media.StatePaused
		if playing {
			state = media.StatePlaying
		}
		sess := scheduler.Session()
		if sess == nil {
			state = media.StateStopped
		} else {
			mediaSession.UpdateMetadata(media.Metadata{
				Title:    sess.Path,
				Duration: time.Duration(sess.Data.Duration * float64(time.Second)),
			})
		}
		mediaSession.UpdatePlaybackState(state)
	}

	mediaSession.SetCommandHandler(media.CommandHandlerFunc(func(cmd media.Command) error {
		switch cmd {
		case media.CmdPlay:
			return playFromMedia(core, ctx)
		case media.CmdPause, media.CmdStop:
			core.Handle(ctx, ipc.Request{Command: ipc.CmdPause})
			return nil
		case media.CmdPlayPause:
			if scheduler.Playing() {
				core.Handle(ctx, ipc.Request{Command: ipc.CmdPause})
				return nil
			}
			return playFromMedia(core, ctx)
		}
		return nil
	}))

	server := ipc.NewServer(flags.SocketPath, core)
	scheduler.SetObserver(server.BroadcastBeat)
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("IPC server error: %w", err)
	}
	defer server.Close()

	if flags.Track != "" {
		if err := loadAndPlay(ctx, core, flags.Track); err != nil {
			return err
		}
	}

	<-ctx.Done()
	scheduler.Pause()
	return nil
}

func newScheduler(output *audio.OtoOutput, cfg config.PlaybackConfig) *remix.Scheduler {
	s := remix.NewScheduler(output, output)
	s.SetTiming(
		time.Duration(cfg.TickMs)*time.Millisecond,
		time.Duration(cfg.LookaheadMs)*time.Millisecond,
		time.Duration(cfg.FadeMs)*time.Millisecond,
	)
	s.Update(remix.SettingsUpdate{
		BranchChance:        &cfg.BranchChance,
		SimilarityThreshold: &cfg.SimilarityThreshold,
	})
	return s
}

func newPipeline(cfg config.AnalysisConfig) *analysis.Pipeline {
	p := analysis.NewPipeline()
	if cfg.WindowSize > 0 {
		p.Detector.WindowSize = cfg.WindowSize
	}
	if cfg.HistoryWindows > 0 {
		p.Detector.HistoryWindows = cfg.HistoryWindows
	}
	if cfg.OnsetRatio > 0 {
		p.Detector.OnsetRatio = cfg.OnsetRatio
	}
	if cfg.MinGapWindows > 0 {
		p.Detector.MinGapWindows = cfg.MinGapWindows
	}
	if cfg.ChromaMinFreq > 0 {
		p.Chroma.MinFreq = cfg.ChromaMinFreq
	}
	if cfg.ChromaMaxFreq > 0 {
		p.Chroma.MaxFreq = cfg.ChromaMaxFreq
	}
	if cfg.EdgeCutoff > 0 {
		p.Graph.Cutoff = cfg.EdgeCutoff
	}
	if cfg.DefaultThreshold > 0 {
		p.Threshold = cfg.DefaultThreshold
	}
	return p
}

func newDecoder(sampleRate int) audio.Decoder {
	fallback, err := audio.NewFFmpegDecoder(sampleRate)
	if err != nil {
		log.Printf("[AUDIO] ffmpeg unavailable, native decoders only: %v", err)
		return audio.NewNativeDecoder(nil)
	}
	return audio.NewNativeDecoder(fallback)
}

func playFromMedia(core *ipc.Core, ctx context.Context) error {
	resp := core.Handle(ctx, ipc.Request{Command: ipc.CmdPlay})
	if !resp.Success {
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}

func loadAndPlay(ctx context.Context, core *ipc.Core, track string) error {
	params, err := json.Marshal(ipc.LoadParams{Path: track})
	if err != nil {
		return err
	}
	if resp := core.Handle(ctx, ipc.Request{Command: ipc.CmdLoad, Data: params}); !resp.Success {
		return fmt.Errorf("failed to load %s: %s", track, resp.Error)
	}
	if resp := core.Handle(ctx, ipc.Request{Command: ipc.CmdPlay}); !resp.Success {
		return fmt.Errorf("failed to start playback: %s", resp.Error)
	}
	log.Printf("Remixing %s", track)
	return nil
}
