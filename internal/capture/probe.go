package capture

import (
	"os"
	"os/exec"
	"path/filepath"

	"teleprompt/internal/session"
)

// Probe checks which capture resources are accessible and returns the
// resulting permission set. Each check fails independently so the session
// can report the exact missing grant:
//   - camera: the video device node exists and is readable
//   - microphone: an audio device is configured and the recorder binary is
//     on PATH
//   - media library: the library directory is writable
func Probe(bin, videoDevice, audioDevice, libraryDir string) session.Permissions {
	if bin == "" {
		bin = DefaultBinary
	}
	var perms session.Permissions

	if videoDevice != "" {
		if f, err := os.OpenFile(videoDevice, os.O_RDONLY, 0); err == nil {
			perms.Camera = true
			_ = f.Close()
		}
	}

	if audioDevice != "" {
		if _, err := exec.LookPath(bin); err == nil {
			perms.Microphone = true
		}
	}

	perms.MediaLibrary = dirWritable(libraryDir)
	return perms
}

func dirWritable(dir string) bool {
	if dir == "" {
		return false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe := filepath.Join(dir, ".probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	_ = f.Close()
	_ = os.Remove(probe)
	return true
}
