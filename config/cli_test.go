package config

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderModeFlag(t *testing.T) {
	fs := flag.NewFlagSet("cli-test", flag.ContinueOnError)
	var mode EncoderMode
	EncoderModeVarFlag(fs, &mode, "encoder", "auto", "")
	require.Equal(t, EncoderModeAuto, mode)

	require.NoError(t, fs.Parse([]string{"-encoder=qsv"}))
	require.Equal(t, EncoderModeQsv, mode)

	fs2 := flag.NewFlagSet("cli-test", flag.ContinueOnError)
	EncoderModeVarFlag(fs2, &mode, "encoder", "auto", "")
	require.Error(t, fs2.Parse([]string{"-encoder=vaapi"}))
}

func TestParseEncoderMode(t *testing.T) {
	for _, valid := range []string{"auto", "nvenc", "qsv", "cpu"} {
		mode, err := ParseEncoderMode(valid)
		require.NoError(t, err)
		require.Equal(t, EncoderMode(valid), mode)
	}
	_, err := ParseEncoderMode("hevc_videotoolbox")
	require.Error(t, err)
}

func TestCliValidate(t *testing.T) {
	cli := Cli{
		MediaDir:               t.TempDir(),
		HLSTempDir:             t.TempDir(),
		SegmentDurationSeconds: 6,
		PrefetchCount:          3,
		MaxConcurrentPrefetch:  4,
		FFmpegPath:             "ffmpeg",
		FFprobePath:            "ffprobe",
	}
	require.NoError(t, cli.Validate())
	require.Equal(t, 6.0, cli.SegmentDuration())

	missingDir := cli
	missingDir.MediaDir = ""
	require.Error(t, missingDir.Validate())

	badDuration := cli
	badDuration.SegmentDurationSeconds = 0
	require.Error(t, badDuration.Validate())

	badPrefetch := cli
	badPrefetch.PrefetchCount = -1
	require.Error(t, badPrefetch.Validate())
}
