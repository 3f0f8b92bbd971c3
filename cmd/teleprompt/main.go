// Package main provides the CLI entrypoint for teleprompt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"teleprompt/internal/capture"
	"teleprompt/internal/config"
	"teleprompt/internal/library"
	"teleprompt/internal/scriptstore"
	"teleprompt/internal/session"
	"teleprompt/internal/tui"
)

const (
	defaultScrollSpeed        = 5
	defaultFontSize           = 24
	defaultVideoDevice        = "/dev/video0"
	defaultAudioDevice        = "default"
	defaultVideoCodec         = "libx264"
	defaultMaxDurationSeconds = 60
	defaultMaxFileSizeMB      = 500
	defaultPlayer             = "mpv"
)

var (
	promptSpeed       int
	promptFont        int
	promptVideoDev    string
	promptAudioDev    string
	promptCodec       string
	promptMaxDuration int
	promptMaxSizeMB   int64
	promptFFmpeg      string
	promptLibraryDir  string
	promptPlayer      string

	recordingsLimit int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "teleprompt",
		Short:         "Terminal teleprompter with camera recording",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPromptCmd,
	}

	rootCmd.Flags().IntVar(&promptSpeed, "speed", defaultScrollSpeed, "scroll speed (1-10)")
	rootCmd.Flags().IntVar(&promptFont, "font", defaultFontSize, "font size (16-36)")
	rootCmd.Flags().StringVar(&promptVideoDev, "video-device", defaultVideoDevice, "camera device")
	rootCmd.Flags().StringVar(&promptAudioDev, "audio-device", defaultAudioDevice, "microphone device")
	rootCmd.Flags().StringVar(&promptCodec, "video-codec", defaultVideoCodec, "video encoder")
	rootCmd.Flags().IntVar(&promptMaxDuration, "max-duration", defaultMaxDurationSeconds, "recording limit in seconds (0 = none)")
	rootCmd.Flags().Int64Var(&promptMaxSizeMB, "max-size-mb", defaultMaxFileSizeMB, "recording size limit in MB (0 = none)")
	rootCmd.Flags().StringVar(&promptFFmpeg, "ffmpeg", capture.DefaultBinary, "ffmpeg binary")
	rootCmd.Flags().StringVar(&promptLibraryDir, "library", config.DefaultLibraryDir(), "recordings directory")
	rootCmd.Flags().StringVar(&promptPlayer, "player", defaultPlayer, "external video player")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newScriptsCmd())
	rootCmd.AddCommand(newRecordingsCmd())

	return rootCmd
}

func runPromptCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "speed", &promptSpeed, fileCfg.Prompter.ScrollSpeed)
	applyIntConfig(cmd, "font", &promptFont, fileCfg.Prompter.FontSize)
	applyStringConfig(cmd, "video-device", &promptVideoDev, fileCfg.Capture.VideoDevice)
	applyStringConfig(cmd, "audio-device", &promptAudioDev, fileCfg.Capture.AudioDevice)
	applyStringConfig(cmd, "video-codec", &promptCodec, fileCfg.Capture.VideoCodec)
	applyIntConfig(cmd, "max-duration", &promptMaxDuration, fileCfg.Capture.MaxDurationSeconds)
	applyInt64Config(cmd, "max-size-mb", &promptMaxSizeMB, fileCfg.Capture.MaxFileSizeMB)
	applyStringConfig(cmd, "ffmpeg", &promptFFmpeg, fileCfg.Capture.FFmpeg)
	applyStringConfig(cmd, "library", &promptLibraryDir, fileCfg.Library.Dir)
	applyStringConfig(cmd, "player", &promptPlayer, fileCfg.Library.Player)

	if err := validateSettings(); err != nil {
		return err
	}

	store, err := scriptstore.Open(config.DefaultScriptDBPath())
	if err != nil {
		return fmt.Errorf("failed to open script store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logErrf("failed to close script store: %v\n", cerr)
		}
	}()

	lib, err := library.Open(promptLibraryDir, config.DefaultLibraryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open media library: %w", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			logErrf("failed to close media library: %v\n", cerr)
		}
	}()

	settings := tui.Settings{
		ScrollSpeed: promptSpeed,
		FontSize:    promptFont,
		CaptureOpts: capture.Options{
			VideoDevice: promptVideoDev,
			AudioDevice: promptAudioDev,
			VideoCodec:  promptCodec,
			MaxDuration: time.Duration(promptMaxDuration) * time.Second,
			MaxFileSize: promptMaxSizeMB * 1024 * 1024,
		},
		NewDevice: func() capture.Device {
			return capture.NewFFmpeg(promptFFmpeg)
		},
		Probe: func() session.Permissions {
			return capture.Probe(promptFFmpeg, promptVideoDev, promptAudioDev, promptLibraryDir)
		},
		Player: promptPlayer,
	}

	app := tui.NewApp(store, lib, settings)
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func validateSettings() error {
	if promptSpeed < session.MinScrollSpeed || promptSpeed > session.MaxScrollSpeed {
		return fmt.Errorf("--speed must be between %d and %d", session.MinScrollSpeed, session.MaxScrollSpeed)
	}
	if promptFont < session.MinFontSize || promptFont > session.MaxFontSize {
		return fmt.Errorf("--font must be between %d and %d", session.MinFontSize, session.MaxFontSize)
	}
	if promptMaxDuration < 0 {
		return fmt.Errorf("--max-duration must be >= 0")
	}
	if promptMaxSizeMB < 0 {
		return fmt.Errorf("--max-size-mb must be >= 0")
	}
	if promptVideoDev == "" {
		return fmt.Errorf("--video-device must not be empty")
	}
	return nil
}

func newScriptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List saved scripts",
		Args:  cobra.NoArgs,
		RunE:  runScriptsCmd,
	}
}

func runScriptsCmd(cmd *cobra.Command, _ []string) error {
	store, err := scriptstore.Open(config.DefaultScriptDBPath())
	if err != nil {
		return fmt.Errorf("failed to open script store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logErrf("failed to close script store: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	scripts, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(scripts) == 0 {
		logErrln("No scripts yet. Run teleprompt and press n to write one.")
		return nil
	}
	selected, err := store.GetSelected(ctx)
	if err != nil {
		return err
	}
	width := outputWidth()
	for _, script := range scripts {
		marker := " "
		if selected != nil && selected.ID == script.ID {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s  %d words  %s", marker, script.Title, script.WordCount, script.CreatedAt.Format("2006-01-02 15:04"))
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), truncate(line, width)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newRecordingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List saved recordings",
		Args:  cobra.NoArgs,
		RunE:  runRecordingsCmd,
	}
	cmd.Flags().IntVar(&recordingsLimit, "last", 0, "limit to last N recordings")
	return cmd
}

func runRecordingsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	dir := config.DefaultLibraryDir()
	if fileCfg.Library.Dir != nil {
		dir = *fileCfg.Library.Dir
	}
	lib, err := library.Open(dir, config.DefaultLibraryDBPath())
	if err != nil {
		return fmt.Errorf("failed to open media library: %w", err)
	}
	defer func() {
		if cerr := lib.Close(); cerr != nil {
			logErrf("failed to close media library: %v\n", cerr)
		}
	}()

	recordings, err := lib.List(context.Background(), recordingsLimit)
	if err != nil {
		return err
	}
	if len(recordings) == 0 {
		logErrln("No recordings yet.")
		return nil
	}
	width := outputWidth()
	for _, rec := range recordings {
		minutes := int(rec.Duration.Minutes())
		seconds := int(rec.Duration.Seconds()) % 60
		line := fmt.Sprintf("%s  %d:%02d  %s", rec.Filename, minutes, seconds, rec.CreatedAt.Format("2006-01-02 15:04"))
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), truncate(line, width)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# teleprompt configuration
# Uncomment a value to enable it. CLI flags override config values.

[prompter]
# scroll-speed = %d        # Scroll speed (1-10)
# font-size = %d           # Font size (16-36)

[capture]
# video-device = %q        # Camera device
# audio-device = %q        # Microphone device
# video-codec = %q         # Video encoder
# max-duration-seconds = %d # Hard recording limit (0 = none)
# max-file-size-mb = %d    # Hard size limit (0 = none)
# ffmpeg = %q              # Recorder binary

[library]
# dir = ""                 # Recordings directory (default: XDG data dir)
# player = %q              # External video player
`,
		defaultScrollSpeed,
		defaultFontSize,
		defaultVideoDevice,
		defaultAudioDevice,
		defaultVideoCodec,
		defaultMaxDurationSeconds,
		defaultMaxFileSizeMB,
		capture.DefaultBinary,
		defaultPlayer,
	)
}

func outputWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func truncate(line string, width int) string {
	if width <= 0 || len(line) <= width {
		return line
	}
	runes := []rune(line)
	if len(runes) <= width {
		return line
	}
	return string(runes[:width-1]) + "…"
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
