// Package transcode drives ffmpeg to re-encode camera videos and reports
// its progress.
package transcode

import (
	"strconv"
	"time"
)

// Settings describes the encoder invocation
type Settings struct {
	FFmpegPath  string
	FFprobePath string

	// HWAccel and HWAccelOutputFormat select the hardware decoder
	HWAccel             string
	HWAccelOutputFormat string

	// Filter is the -vf filter graph
	Filter string

	GlobalQuality int
	VideoCodec    string

	// DropAudio disables the audio stream
	DropAudio bool

	// TerminateTimeout bounds the wait after a cancelled encoder has been
	// asked to stop
	TerminateTimeout time.Duration
}

// DefaultSettings returns the settings for the camera's VAAPI/QSV pipeline
func DefaultSettings() Settings {
	return Settings{
		FFmpegPath:          "ffmpeg",
		FFprobePath:         "ffprobe",
		HWAccel:             "vaapi",
		HWAccelOutputFormat: "vaapi",
		Filter:              "scale_vaapi=1024:768,hwmap=derive_device=qsv,format=qsv",
		GlobalQuality:       26,
		VideoCodec:          "hevc_qsv",
		DropAudio:           true,
		TerminateTimeout:    10 * time.Second,
	}
}

// Args returns the ffmpeg arguments for one encode, without the binary.
// Progress is written to stdout in key=value form.
func (s Settings) Args(input, output string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y"}

	if s.HWAccel != "" {
		args = append(args, "-hwaccel", s.HWAccel)
	}
	if s.HWAccelOutputFormat != "" {
		args = append(args, "-hwaccel_output_format", s.HWAccelOutputFormat)
	}

	args = append(args, "-i", input)

	if s.Filter != "" {
		args = append(args, "-vf", s.Filter)
	}
	if s.GlobalQuality > 0 {
		args = append(args, "-global_quality", strconv.Itoa(s.GlobalQuality))
	}
	if s.VideoCodec != "" {
		args = append(args, "-c:v", s.VideoCodec)
	}
	if s.DropAudio {
		args = append(args, "-an")
	}

	args = append(args, "-progress", "pipe:1", "-nostats", output)
	return args
}
