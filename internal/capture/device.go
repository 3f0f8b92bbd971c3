// Package capture drives the system camera and microphone through ffmpeg.
package capture

import (
	"context"
	"fmt"
	"time"
)

// Options configures one recording.
type Options struct {
	// VideoDevice is the camera device, e.g. /dev/video0.
	VideoDevice string
	// AudioDevice is the microphone device, e.g. "default".
	AudioDevice string
	// VideoFormat is the ffmpeg input format for the camera (v4l2 on Linux).
	VideoFormat string
	// AudioFormat is the ffmpeg input format for the microphone (alsa on Linux).
	AudioFormat string
	// VideoCodec identifies the encoder, e.g. libx264.
	VideoCodec string
	// MaxDuration is a hard stop: the device ends the recording itself when
	// it elapses. Zero means no limit.
	MaxDuration time.Duration
	// MaxFileSize is a hard stop on the output size in bytes. Zero means no
	// limit.
	MaxFileSize int64
	// OutputDir is where the temporary clip is written. Empty means the
	// system temp directory.
	OutputDir string
}

// Clip is the file produced by a finished recording.
type Clip struct {
	Path     string
	Duration time.Duration
}

// Result is delivered on Done exactly once per started recording.
type Result struct {
	Clip Clip
	Err  error
}

// Device abstracts a camera+microphone recorder. Start is asynchronous: it
// returns once the recording is underway, and exactly one Result is later
// delivered on Done — whether the recording ends by Stop, by a hard limit,
// or by failure. A Device records at most once; the session layer creates a
// fresh instance per screen focus.
type Device interface {
	Start(ctx context.Context, opts Options) error
	Stop(ctx context.Context) error
	Done() <-chan Result
	Close() error
}

// ErrorKind classifies capture failures for user-facing messages.
type ErrorKind int

const (
	// KindFailed covers the hardware or OS rejecting or aborting the
	// recording.
	KindFailed ErrorKind = iota
	// KindNoData means the recording stopped before any data was written.
	// Distinct because it is the expected symptom on devices without a
	// working camera and needs its own guidance.
	KindNoData
)

// Error is a classified capture failure.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindNoData:
		return "recording stopped before any data was captured; check that the camera is attached and delivering frames (emulated or headless devices need a real camera or a test source)"
	default:
		if e.Err != nil {
			return fmt.Sprintf("recording failed: %v", e.Err)
		}
		return "recording failed"
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
