package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portfolio/backend/internal/app"
	"github.com/portfolio/backend/internal/chatcontext"
	"github.com/portfolio/backend/internal/portfolio"
	"github.com/portfolio/backend/internal/resume"
	"github.com/portfolio/backend/internal/widget"
)

func init() {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Print the portfolio context the assistant is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *portfolio.Service) error {
				return runContext(cmd.Context(), svc, resume.Default(), os.Stdout)
			})
		},
	}
	rootCmd.AddCommand(contextCmd)

	var transport string
	askCmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask the portfolio assistant one question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			llmCfg := cfg.LLM
			if transport != "" {
				llmCfg.Transport = strings.ToLower(transport)
			}
			client, err := app.NewLLMClient(llmCfg)
			if err != nil {
				return err
			}
			return withService(func(svc *portfolio.Service) error {
				newSession := app.SessionFactory(svc, client, cfg.Chat)
				return runAsk(cmd.Context(), newSession(), strings.Join(args, " "), os.Stdout)
			})
		},
	}
	askCmd.Flags().StringVarP(&transport, "transport", "t", "", "huggingface, relay or openai (defaults to config)")
	rootCmd.AddCommand(askCmd)
}

func runContext(ctx context.Context, svc *portfolio.Service, rec resume.Record, out io.Writer) error {
	snap := svc.Snapshot(ctx)
	_, err := fmt.Fprintln(out, chatcontext.Assemble(snap, rec))
	return err
}

func runAsk(ctx context.Context, session *widget.Session, question string, out io.Writer) error {
	session.Open(ctx)
	defer session.Close()

	reply, err := session.Ask(ctx, question)
	if err != nil {
		return err
	}
	session.Wait()

	if reply.Fallback {
		_, _ = fmt.Fprintln(os.Stderr, "(model unavailable, showing fallback answer)")
	}
	_, err = fmt.Fprintln(out, reply.Content)
	return err
}
