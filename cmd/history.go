// cmd/history.go
package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/audiogram/internal/config"
	"github.com/ColonelBlimp/audiogram/internal/history"
	"github.com/ColonelBlimp/audiogram/internal/result"
)

var errNoDatabase = errors.New("database_url is not configured")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored sessions",
	Long:  `Lists sessions saved to the database configured by database_url, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return printSummaries(cmd.OutOrStdout(), sessions)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the threshold table of a stored session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("session id: %w", err)
		}

		store, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		sess, err := store.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("history: %w", err)
		}
		return result.WriteCSV(cmd.OutOrStdout(), sessionRows(sess))
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "maximum number of sessions to list")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func openHistory(cmd *cobra.Command) (*history.PostgresStore, error) {
	settings, err := config.Get()
	if err != nil {
		return nil, err
	}
	if settings.DatabaseURL == "" {
		return nil, errNoDatabase
	}
	return history.Open(cmd.Context(), settings.DatabaseURL)
}

func printSummaries(w io.Writer, sessions []history.Summary) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions stored")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFINISHED\tDURATION\tSEED\tDETECTED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d/%d\n",
			s.ID,
			s.FinishedAt.Local().Format(result.StampLayout),
			s.FinishedAt.Sub(s.StartedAt).Round(time.Second),
			s.Seed,
			s.Detected,
			s.Frequencies)
	}
	return tw.Flush()
}

func sessionRows(s *history.Session) []result.Row {
	rows := make([]result.Row, len(s.Points))
	for i, p := range s.Points {
		rows[i] = result.Row{Frequency: p.FrequencyHz, Power: p.Power}
	}
	return rows
}
