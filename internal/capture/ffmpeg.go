package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// DefaultBinary is the ffmpeg executable resolved on PATH.
const DefaultBinary = "ffmpeg"

var errClosed = errors.New("capture device closed")

const (
	defaultVideoFormat = "v4l2"
	defaultAudioFormat = "alsa"
	defaultVideoCodec  = "libx264"
)

// FFmpeg records camera and microphone input by running ffmpeg as a child
// process. The hard limits in Options map to ffmpeg's own -t and -fs stop
// conditions, so limit stops happen inside the process and surface as a
// normal Result on Done.
type FFmpeg struct {
	bin string

	mu            sync.Mutex
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	outPath       string
	startedAt     time.Time
	started       bool
	stopRequested bool
	closed        bool

	done chan Result
}

// NewFFmpeg returns a Device backed by the given ffmpeg binary. An empty
// bin uses DefaultBinary.
func NewFFmpeg(bin string) *FFmpeg {
	if bin == "" {
		bin = DefaultBinary
	}
	return &FFmpeg{bin: bin, done: make(chan Result, 1)}
}

// Start launches ffmpeg and returns once the recording process is running.
func (f *FFmpeg) Start(ctx context.Context, opts Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return fmt.Errorf("capture device is closed")
	}
	if f.started {
		return fmt.Errorf("capture device already recording")
	}
	if opts.VideoDevice == "" {
		return fmt.Errorf("video device is empty")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	outPath := filepath.Join(dir, fmt.Sprintf("teleprompt-%d.mp4", time.Now().UnixNano()))

	cmd := exec.Command(f.bin, buildArgs(opts, outPath)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	f.cmd = cmd
	f.stdin = stdin
	f.outPath = outPath
	f.startedAt = time.Now()
	f.started = true
	go f.wait()
	return nil
}

// Stop requests a graceful end of the recording. The outcome is delivered on
// Done, not returned here.
func (f *FFmpeg) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return fmt.Errorf("capture device is not recording")
	}
	if f.stopRequested {
		return nil
	}
	f.stopRequested = true
	// ffmpeg finalizes the container on "q"; fall back to SIGINT if the pipe
	// is already gone.
	if _, err := io.WriteString(f.stdin, "q"); err != nil {
		if serr := f.cmd.Process.Signal(os.Interrupt); serr != nil {
			return fmt.Errorf("failed to stop ffmpeg: %w", serr)
		}
	}
	return nil
}

// Done delivers exactly one Result after a successful Start.
func (f *FFmpeg) Done() <-chan Result {
	return f.done
}

// Close invalidates the instance, killing any still-running process. The
// in-flight clip, if any, is abandoned.
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.started && f.cmd != nil && f.cmd.ProcessState == nil {
		if err := f.cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill ffmpeg: %w", err)
		}
	}
	return nil
}

func (f *FFmpeg) wait() {
	waitErr := f.cmd.Wait()

	f.mu.Lock()
	outPath := f.outPath
	startedAt := f.startedAt
	stopRequested := f.stopRequested
	closed := f.closed
	f.mu.Unlock()

	if closed {
		// Abandoned instance: drop the partial file. A Result is still
		// delivered so no reader of Done blocks forever; the session layer
		// discards it by token.
		_ = os.Remove(outPath)
		f.done <- Result{Err: &Error{Kind: KindFailed, Err: errClosed}}
		return
	}

	info, statErr := os.Stat(outPath)
	if statErr != nil || info.Size() == 0 {
		_ = os.Remove(outPath)
		f.done <- Result{Err: &Error{Kind: KindNoData, Err: waitErr}}
		return
	}
	if waitErr != nil && !stopRequested {
		_ = os.Remove(outPath)
		f.done <- Result{Err: &Error{Kind: KindFailed, Err: waitErr}}
		return
	}
	f.done <- Result{Clip: Clip{Path: outPath, Duration: time.Since(startedAt)}}
}

// buildArgs translates Options into the ffmpeg argument list.
func buildArgs(opts Options, outPath string) []string {
	videoFormat := opts.VideoFormat
	if videoFormat == "" {
		videoFormat = defaultVideoFormat
	}
	audioFormat := opts.AudioFormat
	if audioFormat == "" {
		audioFormat = defaultAudioFormat
	}
	codec := opts.VideoCodec
	if codec == "" {
		codec = defaultVideoCodec
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y"}
	args = append(args, "-f", videoFormat, "-i", opts.VideoDevice)
	if opts.AudioDevice != "" {
		args = append(args, "-f", audioFormat, "-i", opts.AudioDevice)
	}
	args = append(args, "-c:v", codec)
	if opts.MaxDuration > 0 {
		args = append(args, "-t", strconv.FormatFloat(opts.MaxDuration.Seconds(), 'f', -1, 64))
	}
	if opts.MaxFileSize > 0 {
		args = append(args, "-fs", strconv.FormatInt(opts.MaxFileSize, 10))
	}
	return append(args, outPath)
}
