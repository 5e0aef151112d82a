package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/golang/glog"
	"github.com/peterbourgon/ff/v3"
	"golang.org/x/sync/errgroup"

	"github.com/vodstream/jit-api/api"
	"github.com/vodstream/jit-api/catalog"
	"github.com/vodstream/jit-api/config"
	"github.com/vodstream/jit-api/metrics"
	"github.com/vodstream/jit-api/pprof"
	"github.com/vodstream/jit-api/stream"
	"github.com/vodstream/jit-api/video"
)

func main() {
	err := flag.Set("logtostderr", "true")
	if err != nil {
		glog.Fatal(err)
	}
	vFlag := flag.Lookup("v")
	fs := flag.NewFlagSet("jit-api", flag.ExitOnError)
	cli := config.Cli{}

	version := fs.Bool("version", false, "print application version")

	// listen addresses
	fs.StringVar(&cli.HTTPAddr, "http-addr", "0.0.0.0:8989", "Address to bind for HTTP playback and API handling")
	fs.IntVar(&cli.PromPort, "prom-port", 2112, "Prometheus metrics listen port, 0 disables the listener")
	fs.IntVar(&cli.PprofPort, "pprof-port", 6061, "Pprof listen port, 0 disables the listener")

	// media library
	fs.StringVar(&cli.MediaDir, "media-dir", "", "Directory tree holding the source media files (required)")
	fs.StringVar(&cli.HLSTempDir, "hls-temp-dir", filepath.Join(os.TempDir(), "jit-hls"), "Root directory for generated playlists and cached segments")

	// transcoding
	config.EncoderModeVarFlag(fs, &cli.EncoderMode, "encoder", "auto", "Encoder selection: auto, nvenc, qsv or cpu")
	fs.IntVar(&cli.SegmentDurationSeconds, "segment-duration-seconds", 6, "Target HLS segment duration in seconds")
	fs.BoolVar(&cli.SpeedPreset, "speed-preset", false, "Trade quality for encode speed on the software encoder")
	fs.StringVar(&cli.ProfilesFile, "profiles-file", "", "YAML file overriding the built-in quality ladder")
	fs.StringVar(&cli.FFmpegPath, "ffmpeg-path", "ffmpeg", "Path to the ffmpeg binary")
	fs.StringVar(&cli.FFprobePath, "ffprobe-path", "ffprobe", "Path to the ffprobe binary")
	fs.BoolVar(&cli.VerboseEncoder, "verbose-encoder", false, "Log full ffmpeg output instead of the stderr tail")

	// prefetch
	fs.BoolVar(&cli.PrefetchEnabled, "prefetch-enabled", true, "Transcode the segments following a requested one in the background")
	fs.IntVar(&cli.PrefetchCount, "prefetch-count", 3, "How many segments ahead to prefetch")
	fs.IntVar(&cli.MaxConcurrentPrefetch, "max-concurrent-prefetch", 4, "Cap on concurrently running prefetch jobs")

	// special parameters
	verbosity := fs.String("v", "", "Log verbosity.  {4|5|6}")
	_ = fs.String("config", "", "config file (optional)")

	err = ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarNoPrefix(),
	)
	if err != nil {
		glog.Fatalf("error parsing cli: %s", err)
	}
	if len(fs.Args()) > 0 {
		glog.Fatalf("unexpected extra arguments on command line: %v", fs.Args())
	}
	err = flag.CommandLine.Parse(nil)
	if err != nil {
		glog.Fatal(err)
	}

	if *version {
		fmt.Printf("jit-api version: %s\n", config.Version)
		return
	}

	if *verbosity != "" {
		err = vFlag.Value.Set(*verbosity)
		if err != nil {
			glog.Fatal(err)
		}
	}

	if err := cli.Validate(); err != nil {
		glog.Fatalf("invalid configuration: %s", err)
	}
	if err := os.MkdirAll(cli.HLSTempDir, 0755); err != nil {
		glog.Fatalf("error creating HLS cache root %s: %s", cli.HLSTempDir, err)
	}
	for _, bin := range []string{cli.FFmpegPath, cli.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			glog.Fatalf("cannot resolve %s: %s", bin, err)
		}
	}

	profiles := video.DefaultQualityProfiles
	if cli.ProfilesFile != "" {
		profiles, err = video.LoadQualityProfiles(cli.ProfilesFile)
		if err != nil {
			glog.Fatalf("error loading quality profiles from %s: %s", cli.ProfilesFile, err)
		}
	}

	library := catalog.NewCatalog(cli.MediaDir)
	count, err := library.Scan()
	if err != nil {
		glog.Fatalf("error scanning media dir %s: %s", cli.MediaDir, err)
	}
	glog.Infof("media catalog ready: %d file(s) under %s", count, cli.MediaDir)

	engine := stream.NewEngine(&cli, library, profiles)

	// Cancelling the root context prompts all components to shut down cleanly
	group, ctx := errgroup.WithContext(context.Background())

	group.Go(func() error {
		return handleSignals(ctx)
	})

	group.Go(func() error {
		return api.ListenAndServe(ctx, cli, engine, library)
	})

	if cli.PromPort > 0 {
		group.Go(func() error {
			return metrics.ListenAndServe(ctx, cli.PromPort)
		})
	}

	if cli.PprofPort > 0 {
		group.Go(func() error {
			return pprof.ListenAndServe(ctx, cli.PprofPort)
		})
	}

	err = group.Wait()
	engine.Shutdown()
	glog.Infof("Shutdown complete. Reason for shutdown: %s", err)
}

func handleSignals(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
	for {
		select {
		case s := <-c:
			glog.Errorf("caught signal=%v, attempting clean shutdown", s)
			return fmt.Errorf("caught signal=%v", s)
		case <-ctx.Done():
			return nil
		}
	}
}
