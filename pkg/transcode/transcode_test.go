package transcode

import (
	"strings"
	"testing"
	"time"
)

func TestSettingsArgs(t *testing.T) {
	args := DefaultSettings().Args("/in/a.mp4", "/out/archived-a.mp4")
	want := "-hide_banner -nostdin -y -hwaccel vaapi -hwaccel_output_format vaapi -i /in/a.mp4 " +
		"-vf scale_vaapi=1024:768,hwmap=derive_device=qsv,format=qsv -global_quality 26 " +
		"-c:v hevc_qsv -an -progress pipe:1 -nostats /out/archived-a.mp4"

	if got := strings.Join(args, " "); got != want {
		t.Errorf("Args() =\n%s\nwant\n%s", got, want)
	}

	t.Run("SoftwareEncode", func(t *testing.T) {
		s := Settings{VideoCodec: "libx265"}
		got := strings.Join(s.Args("in.mp4", "out.mp4"), " ")
		want := "-hide_banner -nostdin -y -i in.mp4 -c:v libx265 -progress pipe:1 -nostats out.mp4"
		if got != want {
			t.Errorf("Args() = %s, want %s", got, want)
		}
	})
}

func TestParseElapsed(t *testing.T) {
	tests := []struct {
		name string
		line string
		want time.Duration
		ok   bool
	}{
		{"ProgressKey", "out_time=00:00:02.500000", 2500 * time.Millisecond, true},
		{"StatsLine", "frame=  100 fps= 25 q=-0.0 size=  256kB time=00:01:05.04 bitrate= 32.2kbits/s", time.Minute + 5*time.Second + 40*time.Millisecond, true},
		{"Hours", "time=01:00:00", time.Hour, true},
		{"Microseconds", "out_time_ms=2500000", 0, false},
		{"Negative", "out_time=-577014:32:22.77", 0, false},
		{"Unrelated", "progress=continue", 0, false},
		{"Empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseElapsed(tt.line)
			if ok != tt.ok {
				t.Fatalf("ParseElapsed(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseElapsed(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestTracker(t *testing.T) {
	t.Run("MonotonicAndClamped", func(t *testing.T) {
		tr := NewTracker(10 * time.Second)

		steps := []struct {
			elapsed time.Duration
			want    float64
			report  bool
		}{
			{2 * time.Second, 20, true},
			{5 * time.Second, 50, true},
			{4 * time.Second, 50, false},
			{5 * time.Second, 50, false},
			{20 * time.Second, 100, true},
			{30 * time.Second, 100, false},
		}

		for i, s := range steps {
			got, report := tr.Update(s.elapsed)
			if got != s.want || report != s.report {
				t.Errorf("step %d: Update(%v) = %v, %v; want %v, %v", i, s.elapsed, got, report, s.want, s.report)
			}
		}
	})

	t.Run("UnknownDuration", func(t *testing.T) {
		tr := NewTracker(0)
		if _, report := tr.Update(5 * time.Second); report {
			t.Error("Update() should not report without a duration")
		}
	})

	t.Run("FirstZeroReported", func(t *testing.T) {
		tr := NewTracker(10 * time.Second)
		if got, report := tr.Update(0); !report || got != 0 {
			t.Errorf("Update(0) = %v, %v; want 0, true", got, report)
		}
	})
}

func TestParseProbeJSON(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    time.Duration
		wantErr bool
	}{
		{"Valid", `{"format": {"filename": "a.mp4", "duration": "12.500000"}}`, 12500 * time.Millisecond, false},
		{"MissingDuration", `{"format": {"filename": "a.mp4"}}`, 0, true},
		{"BadDuration", `{"format": {"duration": "N/A"}}`, 0, true},
		{"ZeroDuration", `{"format": {"duration": "0.000000"}}`, 0, true},
		{"NotJSON", `ffprobe: error`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProbeJSON([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseProbeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseProbeJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTailBuffer(t *testing.T) {
	b := &tailBuffer{max: 8}
	b.Write([]byte("hello "))
	b.Write([]byte("world"))
	if got := b.String(); got != "lo world" {
		t.Errorf("String() = %q, want %q", got, "lo world")
	}
}
