package config

import (
	"flag"
	"fmt"
	"os"
)

type Cli struct {
	HTTPAddr               string
	MediaDir               string
	HLSTempDir             string
	EncoderMode            EncoderMode
	PrefetchEnabled        bool
	PrefetchCount          int
	MaxConcurrentPrefetch  int
	SegmentDurationSeconds int
	SpeedPreset            bool
	ProfilesFile           string
	FFmpegPath             string
	FFprobePath            string
	PromPort               int
	PprofPort              int
	VerboseEncoder         bool
}

// SegmentDuration is the target segment length handed to the segmenter.
func (cli *Cli) SegmentDuration() float64 {
	return float64(cli.SegmentDurationSeconds)
}

func (cli *Cli) Validate() error {
	if cli.MediaDir == "" {
		return fmt.Errorf("media-dir is required")
	}
	if info, err := os.Stat(cli.MediaDir); err != nil || !info.IsDir() {
		return fmt.Errorf("media-dir %q is not a readable directory", cli.MediaDir)
	}
	if cli.SegmentDurationSeconds < 1 {
		return fmt.Errorf("segment-duration-seconds must be >= 1, got %d", cli.SegmentDurationSeconds)
	}
	if cli.PrefetchCount < 0 {
		return fmt.Errorf("prefetch-count must be >= 0, got %d", cli.PrefetchCount)
	}
	if cli.MaxConcurrentPrefetch < 0 {
		return fmt.Errorf("max-concurrent-prefetch must be >= 0, got %d", cli.MaxConcurrentPrefetch)
	}
	if cli.FFmpegPath == "" || cli.FFprobePath == "" {
		return fmt.Errorf("ffmpeg-path and ffprobe-path must not be empty")
	}
	return nil
}

// EncoderMode selects which hardware encoder chain GetSegment attempts.
type EncoderMode string

const (
	// EncoderModeAuto tries NVIDIA, then Intel, then software.
	EncoderModeAuto EncoderMode = "auto"
	// EncoderModeNvenc forces the NVIDIA encoder with no fallback.
	EncoderModeNvenc EncoderMode = "nvenc"
	// EncoderModeQsv forces the Intel QuickSync encoder with no fallback.
	EncoderModeQsv EncoderMode = "qsv"
	// EncoderModeCPU forces software encoding.
	EncoderModeCPU EncoderMode = "cpu"
)

func ParseEncoderMode(s string) (EncoderMode, error) {
	switch EncoderMode(s) {
	case EncoderModeAuto, EncoderModeNvenc, EncoderModeQsv, EncoderModeCPU:
		return EncoderMode(s), nil
	}
	return "", fmt.Errorf("invalid encoder mode %q (want auto, nvenc, qsv or cpu)", s)
}

func EncoderModeVarFlag(fs *flag.FlagSet, dest *EncoderMode, name, value, usage string) {
	mode, err := ParseEncoderMode(value)
	if err != nil {
		panic(err)
	}
	*dest = mode
	fs.Func(name, usage, func(s string) error {
		mode, err := ParseEncoderMode(s)
		if err != nil {
			return err
		}
		*dest = mode
		return nil
	})
}
