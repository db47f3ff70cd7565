package transcode

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type ffprobeOutput struct {
	Format ffprobeFormat `json:"format"`
}

type ffprobeFormat struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
}

// ParseProbeJSON extracts the container duration from ffprobe JSON output
func ParseProbeJSON(data []byte) (time.Duration, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	if raw.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}

	seconds, err := strconv.ParseFloat(raw.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("invalid duration %q", raw.Format.Duration)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// probeDuration asks ffprobe for the input duration
func (w *Worker) probeDuration(ctx context.Context, input string) (time.Duration, error) {
	bin, err := w.lookPath(w.settings.FFprobePath)
	if err != nil {
		return 0, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := w.command(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		input,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %q: %w", input, err)
	}

	return ParseProbeJSON(out)
}
