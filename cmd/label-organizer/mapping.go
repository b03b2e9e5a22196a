// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/label-organizer/internal/mapping"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect the SKU workbook",
}

var mappingShowCmd = &cobra.Command{
	Use:   "show <skus.xlsx>",
	Short: "Print the SKU to model number table read from a workbook",
	Long: `Show reads the workbook the same way split does and prints every SKU
code with its model number. Use it to check the sheet and header row settings
before a run.`,
	Args: cobra.ExactArgs(1),
	RunE: runMappingShow,
}

func runMappingShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("sheet"); v != "" {
		cfg.Mapping.Sheet = v
	}
	if v, _ := cmd.Flags().GetInt("header-row"); v > 0 {
		cfg.Mapping.HeaderRow = v
	}

	m, err := mapping.Load(args[0], cfg.Mapping)
	if err != nil {
		return err
	}

	entries := m.Entries()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No SKU entries found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %s\n", "SKU", "Model Number")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 50))
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%-20s  %s\n", e.SKU, e.Model)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries\n", len(entries))
	return nil
}

func init() {
	mappingShowCmd.Flags().String("sheet", "", "worksheet holding the SKU table (default first sheet)")
	mappingShowCmd.Flags().Int("header-row", 0, "row of the SKU table header (default 9)")
	mappingShowCmd.Flags().Bool("json", false, "output entries as JSON")

	mappingCmd.AddCommand(mappingShowCmd)
	rootCmd.AddCommand(mappingCmd)
}
