// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/label-organizer/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past split runs",
	Long: `History reads the run database written by split and serve. Each run
records its sources, counts, and which pages went into which model number.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-19s  %6s  %6s  %6s  %s\n",
		"Run", "Started", "Pages", "Labels", "Groups", "Sources")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))
	for _, r := range runs {
		sources := truncate(strings.Join(r.Sources, ", "), 30)
		fmt.Fprintf(os.Stdout, "%-36s  %-19s  %6d  %6d  %6d  %s\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.TotalPages, r.Pairs, r.Groups, sources)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the groups of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}

	s := run.Summary
	fmt.Printf("Run:      %s\n", s.RunID)
	fmt.Printf("Started:  %s (%s)\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Duration)
	fmt.Printf("Mapping:  %s (%d entries)\n", s.Mapping, s.MappingEntries)
	fmt.Printf("Sources:  %s\n", strings.Join(s.Sources, ", "))
	fmt.Printf("Pages:    %d (labels %d, dropped %d, unmapped %d, unknown %d)\n\n",
		s.TotalPages, s.Pairs, s.DroppedPages, s.Unmapped, s.Unmatched)

	fmt.Fprintf(os.Stdout, "%-30s  %-30s  %s\n", "Model Number", "Codes", "Pages")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
	for _, g := range run.Groups {
		fmt.Fprintf(os.Stdout, "%-30s  %-30s  %d\n",
			truncate(g.Label, 30), truncate(strings.Join(g.Codes, ","), 30), len(g.Pages))
	}
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recent runs with their groups as YAML",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		return store.ExportYAML(cmd.Context(), os.Stdout, limit)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := store.ExportYAML(cmd.Context(), f, limit); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	return nil
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.History.Disabled {
		return nil, fmt.Errorf("run history is disabled in the config")
	}
	return history.NewStore(cfg.History)
}

func init() {
	historyCmd.PersistentFlags().Int("limit", 20, "maximum number of runs")

	historyListCmd.Flags().Bool("json", false, "output runs as JSON")
	historyShowCmd.Flags().Bool("json", false, "output the run as JSON")
	historyExportCmd.Flags().String("out", "", "write the export to this file instead of stdout")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
