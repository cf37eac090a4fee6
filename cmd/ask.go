package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/conversation"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/video"
)

var (
	askVideoID  string
	askFilename string
)

var askCmd = &cobra.Command{
	Use:   "ask --video ID [--filename NAME] MESSAGE...",
	Short: "Ask one question about an uploaded video",
	Long: `Send a single message about an already uploaded video and print the reply.

Every invocation is a new conversation with its own thread id.

Example:
  vidbrain ask --video 3f2a9c1e --filename lecture.mp4 What is the main topic?`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := setupLogging("vidbrain-ask")
		if err != nil {
			return err
		}
		defer cleanup()

		svc, shutdown, err := newService(cfg)
		if err != nil {
			return err
		}
		defer shutdown()

		e := video.Entity{ID: askVideoID, Filename: askFilename}
		return runAsk(cmd.Context(), cmd.OutOrStdout(), svc, cfg, e, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askVideoID, "video", "", "video id returned by upload")
	askCmd.Flags().StringVar(&askFilename, "filename", "", "name the video was uploaded under")
	_ = askCmd.MarkFlagRequired("video")
}

// runAsk registers e, sends message on its fresh session and prints the
// agent's turn. A failed reply prints the fallback text and returns the
// error.
func runAsk(ctx context.Context, out io.Writer, svc agent.Service, c config.Config, e video.Entity, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("message is empty")
	}

	reg := registry.New(registry.Config{
		Greeting: c.Chat.Greeting,
		Fallback: c.Chat.FallbackMessage,
	})
	defer reg.Close()

	reg.RegisterVideo(e)
	session := reg.ActiveSession()

	req, ok := session.Begin(message)
	if !ok {
		return fmt.Errorf("session for %s did not accept the message", e.ID)
	}
	reply := conversation.Exchange(ctx, svc, req)
	reg.ResolveReply(reply)

	turns := session.Turns()
	_, _ = fmt.Fprintln(out, turns[len(turns)-1].Content)
	return reply.Err
}
