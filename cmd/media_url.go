package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vidbrain/internal/agent"
)

var mediaThumbnail bool

var mediaURLCmd = &cobra.Command{
	Use:   "media-url FILENAME",
	Short: "Print the URL the service serves an uploaded video from",
	Long: `Print the URL the service serves an uploaded video from.

With --thumbnail the URL carries a #t=1 media fragment so players show the
frame one second in.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := agent.MediaURL(cfg.Server.BaseURL, args[0])
		if mediaThumbnail {
			url = agent.ThumbnailURL(cfg.Server.BaseURL, args[0])
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), url)
		return err
	},
}

func init() {
	rootCmd.AddCommand(mediaURLCmd)

	mediaURLCmd.Flags().BoolVar(&mediaThumbnail, "thumbnail", false, "append the #t=1 thumbnail fragment")
}
