package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/audiogram/internal/audio"
	"github.com/ColonelBlimp/audiogram/internal/history"
	"github.com/ColonelBlimp/audiogram/internal/session"
)

func resetViperForTest() {
	viper.Reset()
}

// resetFlags undoes values parsed by earlier Execute calls on the shared
// command tree, including --help.
func resetFlags() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// setupConfig writes body as the user config under a temp HOME.
func setupConfig(t *testing.T, body string) {
	t.Helper()
	resetViperForTest()
	resetFlags()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	configDir := filepath.Join(tmpDir, ".config", "audiogram")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// silentConfig is a two-frequency, three-rung session with no audio device.
func silentConfig(outputDir string) string {
	return fmt.Sprintf(`frequencies: [1000, 2000]
amplitude_min_exponent: -1
amplitude_max_exponent: 0
amplitude_step: 0.5
tone_duration: 1ms
audio_backend: silent
seed: 3
output_dir: %q
plot_enabled: false
`, outputDir)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func csvFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "HearingThreshold_*.csv"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	return matches
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"device", "d"},
		{"backend", "b"},
		{"seed", "s"},
		{"output", "o"},
		{"debug", "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Errorf("flag %q not found", tt.name)
				return
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_FlagDefaults(t *testing.T) {
	resetFlags()
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		defaultValue string
	}{
		{"device", "-1"},
		{"backend", "malgo"},
		{"seed", "0"},
		{"output", "."},
		{"debug", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "audiogram" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "audiogram")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}

	for _, name := range []string{"devices", "history"} {
		if c, _, err := rootCmd.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	setupConfig(t, "seed: 1")

	output, err := execute(t, "", "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}

	for _, want := range []string{"audiogram", "--device", "--backend", "--seed", "devices", "history"} {
		if !strings.Contains(output, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

func TestInitConfig(t *testing.T) {
	setupConfig(t, "seed: 20")

	initConfig()

	if viper.GetInt("seed") != 20 {
		t.Errorf("viper.GetInt(seed) = %d, want 20", viper.GetInt("seed"))
	}
}

func TestRunSession_Silent(t *testing.T) {
	outDir := t.TempDir()
	setupConfig(t, silentConfig(outDir))

	output, err := execute(t, "y\nmaybe\ny\n")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	files := csvFiles(t, outDir)
	if len(files) != 1 {
		t.Fatalf("csv files = %v, want exactly one", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(data), "Frequency_Hz,Threshold_Power\n1000,") {
		t.Errorf("csv = %q", data)
	}

	for _, want := range []string{
		"Now playing random frequency 1/2",
		"Now playing random frequency 2/2",
		`Press "n" if you don't hear anything, "y" if you do: `,
		"Results saved to " + files[0],
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestRunSession_FlagsOverrideConfig(t *testing.T) {
	configDir := t.TempDir()
	flagDir := t.TempDir()
	setupConfig(t, silentConfig(configDir))

	if _, err := execute(t, "y\ny\n", "--output", flagDir, "--seed", "9"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := csvFiles(t, flagDir); len(got) != 1 {
		t.Errorf("csv files in --output dir = %v", got)
	}
	if got := csvFiles(t, configDir); len(got) != 0 {
		t.Errorf("csv written to config dir despite --output: %v", got)
	}
	if viper.GetUint64("seed") != 9 {
		t.Errorf("seed = %d, want 9", viper.GetUint64("seed"))
	}
}

func TestRunSession_InputClosedWritesNothing(t *testing.T) {
	outDir := t.TempDir()
	setupConfig(t, silentConfig(outDir))

	_, err := execute(t, "y\n")
	if !errors.Is(err, session.ErrAborted) {
		t.Fatalf("Execute() error = %v, want ErrAborted", err)
	}
	if got := csvFiles(t, outDir); len(got) != 0 {
		t.Errorf("aborted session wrote %v", got)
	}
}

func TestRunSession_InvalidConfig(t *testing.T) {
	setupConfig(t, `sample_rate: 1000000`)

	_, err := execute(t, "")
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("expected config error, got: %v", err)
	}
}

func TestRunSession_UnknownBackend(t *testing.T) {
	setupConfig(t, silentConfig(t.TempDir()))

	_, err := execute(t, "", "--backend", "jack")
	if err == nil || !strings.Contains(err.Error(), "audio_backend") {
		t.Errorf("Execute() error = %v, want audio_backend error", err)
	}
}

func TestRunSession_UnreachableOptionalSinks(t *testing.T) {
	outDir := t.TempDir()
	setupConfig(t, silentConfig(outDir)+`database_url: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
`)

	output, err := execute(t, "y\ny\n")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(output, "history disabled") {
		t.Errorf("expected history warning in output:\n%s", output)
	}
	if got := csvFiles(t, outDir); len(got) != 1 {
		t.Errorf("csv files = %v, want one", got)
	}
}

func TestHistoryCmd_RequiresDatabase(t *testing.T) {
	setupConfig(t, "seed: 1")

	_, err := execute(t, "", "history")
	if !errors.Is(err, errNoDatabase) {
		t.Errorf("Execute(history) error = %v, want errNoDatabase", err)
	}
}

func TestHistoryShowCmd_InvalidID(t *testing.T) {
	setupConfig(t, "seed: 1")

	_, err := execute(t, "", "history", "show", "not-a-uuid")
	if err == nil || !strings.Contains(err.Error(), "session id") {
		t.Errorf("Execute(history show) error = %v", err)
	}
}

func TestPrintSummaries(t *testing.T) {
	var buf bytes.Buffer
	if err := printSummaries(&buf, nil); err != nil {
		t.Fatalf("printSummaries() error = %v", err)
	}
	if buf.String() != "No sessions stored\n" {
		t.Errorf("empty listing = %q", buf.String())
	}

	buf.Reset()
	id := uuid.MustParse("6f1c1a4e-8d52-4a86-9a65-1c1f7e0f2b11")
	finished := time.Date(2026, 10, 15, 9, 30, 0, 0, time.Local)
	err := printSummaries(&buf, []history.Summary{{
		ID:          id,
		StartedAt:   finished.Add(-14 * time.Minute),
		FinishedAt:  finished,
		Seed:        42,
		Frequencies: 27,
		Detected:    25,
	}})
	if err != nil {
		t.Fatalf("printSummaries() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ID", "DETECTED", id.String(), "2026-10-15_09-30", "14m0s", "42", "25/27"} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q:\n%s", want, out)
		}
	}
}

func TestSessionRows(t *testing.T) {
	rows := sessionRows(&history.Session{Points: []history.Point{
		{FrequencyHz: 63, Power: 0},
		{FrequencyHz: 1000, Power: 1e-6},
	}})

	if len(rows) != 2 || rows[1].Frequency != 1000 || rows[1].Power != 1e-6 {
		t.Errorf("sessionRows() = %+v", rows)
	}
}

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	devicesCmd.SetOut(&buf)
	defer devicesCmd.SetOut(nil)

	printDevices(devicesCmd, nil)
	if buf.String() != "No playback devices found\n" {
		t.Errorf("empty list = %q", buf.String())
	}

	buf.Reset()
	printDevices(devicesCmd, []audio.DeviceInfo{
		{Index: 0, Name: "Built-in Output", IsDefault: true},
		{Index: 1, Name: "USB Headphones"},
	})
	want := "[0] Built-in Output (default)\n[1] USB Headphones\n"
	if buf.String() != want {
		t.Errorf("printDevices() = %q, want %q", buf.String(), want)
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer

	newLogger(&buf, false).Debug().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug message written at info level: %q", buf.String())
	}

	log := newLogger(&buf, true)
	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("level = %v, want debug", log.GetLevel())
	}
	log.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug message missing: %q", buf.String())
	}
}
