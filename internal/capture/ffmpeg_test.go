package capture

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBuildArgsDefaults(t *testing.T) {
	args := buildArgs(Options{VideoDevice: "/dev/video0"}, "/tmp/out.mp4")
	joined := strings.Join(args, " ")

	if !strings.Contains(joined, "-f v4l2 -i /dev/video0") {
		t.Fatalf("expected default video input, got %q", joined)
	}
	if !strings.Contains(joined, "-c:v libx264") {
		t.Fatalf("expected default codec, got %q", joined)
	}
	if strings.Contains(joined, "-t ") {
		t.Fatalf("unexpected duration limit without MaxDuration: %q", joined)
	}
	if strings.Contains(joined, "-fs ") {
		t.Fatalf("unexpected size limit without MaxFileSize: %q", joined)
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Fatalf("expected output path last, got %q", args[len(args)-1])
	}
}

func TestBuildArgsLimits(t *testing.T) {
	opts := Options{
		VideoDevice: "/dev/video1",
		AudioDevice: "hw:1",
		VideoCodec:  "libx265",
		MaxDuration: 90 * time.Second,
		MaxFileSize: 250 * 1024 * 1024,
	}
	joined := strings.Join(buildArgs(opts, "/tmp/out.mp4"), " ")

	if !strings.Contains(joined, "-f alsa -i hw:1") {
		t.Fatalf("expected audio input, got %q", joined)
	}
	if !strings.Contains(joined, "-c:v libx265") {
		t.Fatalf("expected configured codec, got %q", joined)
	}
	if !strings.Contains(joined, "-t 90") {
		t.Fatalf("expected duration limit, got %q", joined)
	}
	if !strings.Contains(joined, "-fs 262144000") {
		t.Fatalf("expected size limit in bytes, got %q", joined)
	}
}

func TestBuildArgsNoAudioDevice(t *testing.T) {
	joined := strings.Join(buildArgs(Options{VideoDevice: "/dev/video0"}, "/tmp/out.mp4"), " ")
	if strings.Contains(joined, "alsa") {
		t.Fatalf("expected no audio input without a device, got %q", joined)
	}
}

func TestErrorNoDataMessage(t *testing.T) {
	err := &Error{Kind: KindNoData, Err: errors.New("exit status 1")}
	msg := err.Error()
	if !strings.Contains(msg, "before any data") {
		t.Fatalf("expected the no-data classification, got %q", msg)
	}
	if !strings.Contains(msg, "camera") {
		t.Fatalf("expected actionable guidance, got %q", msg)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &Error{Kind: KindFailed, Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected Unwrap to expose the cause")
	}
	if !strings.Contains(err.Error(), "recording failed") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestStartRejectsEmptyVideoDevice(t *testing.T) {
	f := NewFFmpeg("")
	if err := f.Start(context.Background(), Options{}); err == nil {
		t.Fatalf("expected error for empty video device")
	}
}
