// cmd/root.go
package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/ColonelBlimp/audiogram/internal/audio"
	"github.com/ColonelBlimp/audiogram/internal/config"
	"github.com/ColonelBlimp/audiogram/internal/dsp"
	"github.com/ColonelBlimp/audiogram/internal/recovery"
	"github.com/ColonelBlimp/audiogram/internal/search"
	"github.com/ColonelBlimp/audiogram/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "audiogram",
	Short: "Measure your hearing threshold across frequency",
	Long: `Plays sine tones at increasing loudness across a fixed frequency table
and records the quietest tone you can hear at each one. Results are written
to HearingThreshold_<time>.csv in the output directory.`,
	SilenceUsage: true,
	RunE:         runSession,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().StringP("backend", "b", audio.BackendMalgo, "audio backend (malgo, oto, silent)")
	rootCmd.PersistentFlags().Uint64P("seed", "s", 0, "test order seed (0 derives one from the clock)")
	rootCmd.PersistentFlags().StringP("output", "o", ".", "directory for result files")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
}

// bindFlags is repeated on every init so a viper reset keeps flag overrides.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("device_index", flags.Lookup("device"))
	viper.BindPFlag("audio_backend", flags.Lookup("backend"))
	viper.BindPFlag("seed", flags.Lookup("seed"))
	viper.BindPFlag("output_dir", flags.Lookup("output"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	bindFlags()
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().
		Logger()
}

func runSession(cmd *cobra.Command, args []string) (err error) {
	defer recovery.Capture(&err)

	settings, err := config.Get()
	if err != nil {
		return err
	}

	log := newLogger(cmd.ErrOrStderr(), settings.Debug)
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		log.Warn().Msg("stdin is not a terminal, answers are read from the input stream")
	}

	synth, err := dsp.NewToneGenerator(settings.ToneConfig())
	if err != nil {
		return fmt.Errorf("tone config: %w", err)
	}

	player, err := audio.New(settings.AudioConfig())
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	if err := player.Init(); err != nil {
		return fmt.Errorf("audio init: %w", err)
	}
	defer player.Close()

	stopWatch := exitOnInterrupt(player, cmd.ErrOrStderr())
	defer stopWatch()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	optional, closeSinks := optionalSinks(ctx, settings, log)
	defer closeSinks()

	runner, err := session.NewRunner(session.Config{
		Design:        settings.GridDesign(),
		Seed:          settings.Seed,
		Synth:         synth,
		Player:        player,
		Responses:     search.NewLineSource(in, out),
		Sinks:         []session.Sink{&session.CSVSink{Dir: settings.OutputDir, Out: out}},
		OptionalSinks: optional,
		Out:           out,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	log.Debug().
		Str("backend", settings.AudioBackend).
		Int("device", settings.DeviceIndex).
		Int("sample_rate", settings.SampleRate).
		Dur("tone", settings.ToneDuration).
		Msg("audio ready")

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("detected", res.Detected()).
		Int("frequencies", res.Frequencies.Len()).
		Msg("hearing threshold measured")
	return nil
}

// exitOnInterrupt silences the player and exits on SIGINT/SIGTERM. The
// answer prompt blocks on stdin, so cancellation alone would not return.
func exitOnInterrupt(player audio.Player, stderr io.Writer) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			_ = player.Stop()
			_ = player.Close()
			fmt.Fprintln(stderr, "\ninterrupted, no results written")
			os.Exit(130)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
