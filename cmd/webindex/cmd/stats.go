package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index size and model readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(appLogger)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.orch.Stats()
			if err != nil {
				return fmt.Errorf("stats failed: %w", err)
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "pages:        %d\n", st.PageCount)
			fmt.Fprintf(w, "passages:     %d\n", st.PassageCount)
			fmt.Fprintf(w, "bytes_on_disk: %d\n", st.BytesOnDisk)
			fmt.Fprintf(w, "model_ready:  %t\n", st.ModelReady)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
