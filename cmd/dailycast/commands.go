package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"DailyCast/internal/app"
	"DailyCast/internal/domain"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Produce and publish today's episode once",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(runCtx, ctx.config(), ctx.log())
			if err != nil {
				return err
			}
			defer application.Close()

			rec, err := application.Run(runCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %q (episode %s, %d stories)\n", rec.EpisodeTitle, rec.EpisodeID, rec.StoryCount)
			return nil
		},
	}
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daily scheduler and the chat webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(runCtx, ctx.config(), ctx.log())
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Serve(runCtx)
		},
	}
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		debug   bool
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Fetch all active sources and print the merged story list",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config()
			logger := slog.New(slog.DiscardHandler)
			if verbose {
				logger = ctx.log()
			}
			result, err := app.NewSource(cfg, logger).Ingest(cmd.Context(), cfg.Sources)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			if debug {
				fmt.Fprintln(out, renderReports(result.Reports))
			}
			fmt.Fprintln(out, renderStories(result.Stories))
			fmt.Fprintf(out, "%d stories fetched at %s\n", result.Total, result.FetchedAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Print the per-source fetch report")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log fetch progress")
	return cmd
}

func newRouteCommand(ctx *commandContext) *cobra.Command {
	var chatID string
	cmd := &cobra.Command{
		Use:   "route <text>",
		Short: "Route one operator command as if it came from chat",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), ctx.config(), ctx.log())
			if err != nil {
				return err
			}
			defer application.Close()

			decision, err := application.Route(cmd.Context(), domain.OperatorCommand{
				ChatID: chatID,
				Text:   strings.Join(args, " "),
			})
			fmt.Fprintf(cmd.OutOrStdout(), "route=%s action=%s\n%s\n", decision.Route, decision.Action, decision.Response)
			return err
		},
	}
	cmd.Flags().StringVar(&chatID, "chat", "", "Chat id to reply to (default telegram.chatId)")
	return cmd
}

func newBreakerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "breaker pause|resume",
		Short:     "Pause or resume every pipeline in the registry",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(domain.ActionPause), string(domain.ActionResume)},
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), ctx.config(), ctx.log())
			if err != nil {
				return err
			}
			defer application.Close()

			report := application.Breaker(cmd.Context(), domain.ActivationAction(args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), renderBreaker(report))
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d of %d pipelines could not be switched", n, len(report.Results))
			}
			return nil
		},
	}
}
