package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProbeMediaLibraryWritable(t *testing.T) {
	dir := t.TempDir()
	perms := Probe("ffmpeg", "", "", dir)
	if !perms.MediaLibrary {
		t.Fatalf("expected writable library dir to grant media permission")
	}
	if perms.Camera {
		t.Fatalf("expected no camera permission without a device path")
	}
}

func TestProbeMissingCameraDevice(t *testing.T) {
	perms := Probe("ffmpeg", filepath.Join(t.TempDir(), "video0"), "default", t.TempDir())
	if perms.Camera {
		t.Fatalf("expected no camera permission for a missing device node")
	}
}

func TestProbeCameraDeviceReadable(t *testing.T) {
	dir := t.TempDir()
	device := filepath.Join(dir, "video0")
	if err := os.WriteFile(device, nil, 0o644); err != nil {
		t.Fatalf("write fake device: %v", err)
	}
	perms := Probe("ffmpeg", device, "default", dir)
	if !perms.Camera {
		t.Fatalf("expected camera permission for a readable device node")
	}
}

func TestProbeEmptyLibraryDir(t *testing.T) {
	perms := Probe("ffmpeg", "", "", "")
	if perms.MediaLibrary {
		t.Fatalf("expected no media permission for an empty dir")
	}
}
