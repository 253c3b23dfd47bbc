package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hushh/deepsearch/internal/model"
	"github.com/hushh/deepsearch/internal/store"
)

var searchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "Inspect persisted searches",
}

// -- searches list --

var searchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent searches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("searches"); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := st.ListSearches(ctx, store.SearchFilter{Status: model.SessionStatus(status), Limit: limit})
		if err != nil {
			return eris.Wrap(err, "searches list")
		}
		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No searches found.")
			return nil
		}

		formatSearchesList(os.Stdout, list)
		return nil
	},
}

// -- searches show --

var searchesShowCmd = &cobra.Command{
	Use:   "show <search-id>",
	Short: "Show a persisted search session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("searches"); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sess, err := st.GetSearch(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "searches show")
		}

		output, _ := cmd.Flags().GetString("output")
		return writeSession(os.Stdout, sess, output)
	},
}

func formatSearchesList(out io.Writer, list []store.SearchSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tSTATUS\tMODE\tPHASE\tCONFIDENCE\tDURATION\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t------\t----\t-----\t----------\t--------\t-------")

	for _, s := range list {
		mode := s.Mode
		if mode == "" {
			mode = "-"
		}
		dur := (time.Duration(s.ExecutionTimeMs) * time.Millisecond).Round(time.Millisecond).String()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d%%\t%s\t%s\n",
			s.SearchID, s.Name, s.Status, mode, s.CurrentPhase, s.OverallConfidence, dur,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func init() {
	searchesListCmd.Flags().String("status", "", "filter by status (complete, partial, failed)")
	searchesListCmd.Flags().Int("limit", 50, "maximum number of searches to list")
	searchesShowCmd.Flags().StringP("output", "o", "json", "output format: json or yaml")

	searchesCmd.AddCommand(searchesListCmd, searchesShowCmd)
	rootCmd.AddCommand(searchesCmd)
}
