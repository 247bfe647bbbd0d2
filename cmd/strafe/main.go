// Package main provides the CLI entrypoint for strafe.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/strafe/internal/config"
	"github.com/verte-zerg/strafe/internal/input"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/scoring"
	"github.com/verte-zerg/strafe/internal/sound"
	"github.com/verte-zerg/strafe/internal/stats"
	"github.com/verte-zerg/strafe/internal/strafe"
	"github.com/verte-zerg/strafe/internal/trainer"
	"github.com/verte-zerg/strafe/internal/tui"
)

const (
	defaultLeftKey   = "A"
	defaultRightKey  = "D"
	defaultToggleKey = "ESC"
	logEnv           = "STRAFE_LOG"
)

var (
	trainMaxHoldMs       float64
	trainHoldFromRelease bool
	trainLeftKey         string
	trainRightKey        string
	trainToggleKey       string
	trainSound           bool
	trainDevices         []string
	trainPlain           bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "strafe",
		Short:         "Counter-strafe timing trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTrainerCmd,
	}

	rootCmd.Flags().Float64Var(&trainMaxHoldMs, "max-hold-ms", model.DefaultMaxHoldMs, "held-too-long threshold in milliseconds")
	rootCmd.Flags().BoolVar(&trainHoldFromRelease, "hold-from-release", false, "measure hold time from press to release instead of press to shot")
	rootCmd.Flags().StringVar(&trainLeftKey, "left-key", defaultLeftKey, "left movement key")
	rootCmd.Flags().StringVar(&trainRightKey, "right-key", defaultRightKey, "right movement key")
	rootCmd.Flags().StringVar(&trainToggleKey, "toggle-key", defaultToggleKey, "pause/resume key")
	rootCmd.Flags().BoolVar(&trainSound, "sound", true, "play audio cues")
	rootCmd.Flags().StringSliceVar(&trainDevices, "device", nil, "evdev device path (Linux, repeatable)")
	rootCmd.Flags().BoolVar(&trainPlain, "plain", false, "print one line per attempt instead of the TUI")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newKeysCmd())

	return rootCmd
}

func runTrainerCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFloatConfig(cmd, "max-hold-ms", &trainMaxHoldMs, fileCfg.Trainer.MaxHoldMs)
	applyBoolConfig(cmd, "hold-from-release", &trainHoldFromRelease, fileCfg.Trainer.HoldFromRelease)
	applyStringConfig(cmd, "left-key", &trainLeftKey, fileCfg.Trainer.LeftKey)
	applyStringConfig(cmd, "right-key", &trainRightKey, fileCfg.Trainer.RightKey)
	applyStringConfig(cmd, "toggle-key", &trainToggleKey, fileCfg.Trainer.ToggleKey)
	applyBoolConfig(cmd, "sound", &trainSound, fileCfg.Trainer.Sound)
	applySliceConfig(cmd, "device", &trainDevices, fileCfg.Trainer.Devices)

	cfg := model.Config{
		MaxHoldMs:       trainMaxHoldMs,
		HoldFromRelease: trainHoldFromRelease,
		LeftKey:         trainLeftKey,
		RightKey:        trainRightKey,
		ToggleKey:       trainToggleKey,
		Sound:           trainSound,
		Devices:         trainDevices,
		Plain:           trainPlain,
	}

	keys, err := validateConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	hook := input.NewHook(cfg.Devices)
	if err := hook.Start(ctx); err != nil {
		if errors.Is(err, input.ErrUnsupported) {
			return fmt.Errorf("global input hooks are not available on this platform: %w", err)
		}
		return fmt.Errorf("failed to start input hook: %w", err)
	}
	defer func() {
		if err := hook.Stop(); err != nil {
			logErrf("failed to stop input hook: %v\n", err)
		}
	}()

	tr := trainer.New(keys, strafe.Options{
		MaxHoldMs:       cfg.MaxHoldMs,
		HoldFromRelease: cfg.HoldFromRelease,
	})
	player := sound.New(cfg.Sound)
	watchConfig(ctx, cmd, tr)

	var runErr error
	if cfg.Plain {
		runErr = runPlain(ctx, cmd.OutOrStdout(), tr, hook, keys, player)
	} else {
		runErr = runTUI(ctx, tr, hook, keys, player)
	}
	stop()
	tr.Close()
	if runErr != nil {
		return runErr
	}

	if err := stats.RenderSummary(cmd.OutOrStdout(), tr.Snapshot().Stats); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}
	return nil
}

func runTUI(ctx context.Context, tr *trainer.Trainer, hook input.Source, keys trainer.Keymap, player sound.Player) error {
	m := tui.NewModel(tr, tui.Options{Keys: keys, Player: player})
	go feedTrainer(ctx, tr, hook)

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func runPlain(ctx context.Context, w io.Writer, tr *trainer.Trainer, hook input.Source, keys trainer.Keymap, player sound.Player) error {
	if _, err := fmt.Fprintln(w, startupInstructions(keys)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	events := tr.Subscribe(64)
	go feedTrainer(ctx, tr, hook)
	go func() {
		if err := tui.ReadCommands(os.Stdin, tr); err != nil {
			log.Printf("plain commands: %v", err)
		}
	}()
	return tui.RunPlain(ctx, w, events, keys, player, terminalWidth())
}

// feedTrainer closes the trainer once the hook stops delivering events so
// observers see the end of the stream.
func feedTrainer(ctx context.Context, tr *trainer.Trainer, hook input.Source) {
	tr.Run(ctx, hook.Events())
	if ctx.Err() == nil {
		log.Printf("input hook stopped delivering events")
	}
	tr.Close()
}

// watchConfig applies max-hold-ms edits made to the config file during a run
// unless the flag pinned the value.
func watchConfig(ctx context.Context, cmd *cobra.Command, tr *trainer.Trainer) {
	if cmd.Flags().Changed("max-hold-ms") {
		return
	}
	err := config.Watch(ctx, config.DefaultConfigPath(), func(fileCfg config.FileConfig) {
		if fileCfg.Trainer.MaxHoldMs == nil {
			return
		}
		tr.SetMaxHoldMs(*fileCfg.Trainer.MaxHoldMs)
	}, func(err error) {
		log.Printf("config reload: %v", err)
	})
	if err != nil {
		log.Printf("config watch disabled: %v", err)
	}
}

func setupLogging() (func(), error) {
	path := strings.TrimSpace(os.Getenv(logEnv))
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "strafe")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return func() {
		if err := f.Close(); err != nil {
			logErrf("failed to close log file: %v\n", err)
		}
	}, nil
}

func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}

func startupInstructions(keys trainer.Keymap) string {
	lines := []string{
		"Counter-Strafe Trainer",
		fmt.Sprintf("Pattern: hold %s, tap %s, shoot %.0f-%.0fms after the tap (or mirror it).",
			keys.Left, keys.Right, scoring.PerfectMinMs, scoring.PerfectMaxMs),
		fmt.Sprintf("%s pauses and resumes. Ctrl+C quits.", keys.Toggle),
		"Type r then Enter to reset stats, + or - to change max hold.",
	}
	return strings.Join(lines, "\n")
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

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List key names accepted by --left-key, --right-key and --toggle-key",
		Args:  cobra.NoArgs,
		RunE:  runKeysCmd,
	}
}

func runKeysCmd(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	for _, key := range input.KnownKeys() {
		if _, err := fmt.Fprintln(out, key); err != nil {
			return err
		}
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if len(value) == 0 {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# strafe configuration
# Uncomment a value to enable it. CLI flags override config values.

[trainer]
# max-hold-ms = %.0f          # Held-too-long threshold in milliseconds
# hold-from-release = false  # Measure hold time press->release instead of press->shot
# left-key = %q             # Left movement key (see: strafe keys)
# right-key = %q            # Right movement key
# toggle-key = %q         # Pause/resume key
# sound = true               # Audio cues
# devices = []               # Linux evdev paths, autodetected when empty
`,
		model.DefaultMaxHoldMs,
		defaultLeftKey,
		defaultRightKey,
		defaultToggleKey,
	)
}

func validateConfig(cfg model.Config) (trainer.Keymap, error) {
	if cfg.MaxHoldMs <= 0 {
		return trainer.Keymap{}, fmt.Errorf("--max-hold-ms must be > 0")
	}
	left, err := input.ParseKey(cfg.LeftKey)
	if err != nil {
		return trainer.Keymap{}, fmt.Errorf("--left-key: %w", err)
	}
	right, err := input.ParseKey(cfg.RightKey)
	if err != nil {
		return trainer.Keymap{}, fmt.Errorf("--right-key: %w", err)
	}
	toggle, err := input.ParseKey(cfg.ToggleKey)
	if err != nil {
		return trainer.Keymap{}, fmt.Errorf("--toggle-key: %w", err)
	}
	if left == right || left == toggle || right == toggle {
		return trainer.Keymap{}, fmt.Errorf("--left-key, --right-key and --toggle-key must be distinct")
	}
	return trainer.Keymap{Left: left, Right: right, Toggle: toggle}, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
