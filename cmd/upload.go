package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/upload"
)

var uploadCmd = &cobra.Command{
	Use:   "upload FILE",
	Short: "Upload a video and print its id",
	Long: `Upload a video to the analysis service without starting the TUI.

On success the assigned video id is printed on the first line, followed by
the URL the service serves the video from.

Example:
  vidbrain upload lecture.mp4
  vidbrain ask --video "$(vidbrain upload lecture.mp4 | head -1)" --filename lecture.mp4 "Summarize it"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupLogging("vidbrain-upload")
		if err != nil {
			return err
		}
		defer cleanup()

		svc, shutdown, err := newService(cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		return runUpload(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), svc, cfg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

// runUpload stages path and submits it through the same controller the TUI
// uses.
func runUpload(ctx context.Context, out, errOut io.Writer, svc agent.Service, c config.Config, path string) error {
	reg := registry.New(registry.Config{})
	defer reg.Close()

	uploads := upload.New(upload.Config{
		Registrar:    reg,
		Service:      svc,
		ErrorMessage: c.Upload.ErrorMessage,
	})
	if err := uploads.SelectFile(ctx, path); err != nil {
		return err
	}
	staged, _ := uploads.Staged()
	if !staged.Preview.IsVideo {
		_, _ = fmt.Fprintf(errOut, "warning: %s is not a recognized video type\n", staged.Name)
	}

	entity, err := uploads.Submit(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", uploads.ErrorMessage(), err)
	}

	_, _ = fmt.Fprintln(out, entity.ID)
	_, _ = fmt.Fprintln(out, agent.MediaURL(c.Server.BaseURL, entity.Filename))
	return nil
}
