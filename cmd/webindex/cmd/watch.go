package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a directory and auto-ingest new archive files",
		Long: `Watch stands in for the out-of-scope browser-capture notification
channel: it observes a directory for new or rewritten .mhtml/.mht files,
debounces rapid writes, and ingests each file once it settles.

If dir is omitted, the configured watch.dir is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(appLogger)
			if err != nil {
				return err
			}
			defer a.Close()

			dir := a.cfg.Watch.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no watch directory configured; pass one or set watch.dir")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s for new archives (ctrl-c to stop)\n", dir)
			return a.orch.Watch(cmd.Context(), dir)
		},
	}
}
