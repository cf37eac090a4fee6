package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vidbrain/internal/agent"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the analysis service is reachable",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, shutdown, err := newService(cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		return runHealth(cmd.Context(), cmd.OutOrStdout(), svc, cfg.Server.BaseURL)
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(ctx context.Context, out io.Writer, svc agent.Service, baseURL string) error {
	status, err := svc.Health(ctx)
	if err != nil {
		return fmt.Errorf("%s unreachable: %w", baseURL, err)
	}
	if !status.OK() {
		return fmt.Errorf("%s reported status %q", baseURL, status.Status)
	}
	_, _ = fmt.Fprintf(out, "%s ok\n", baseURL)
	return nil
}
