// -- cmd/run.go --
package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/voxweb/voxweb/api/schemas"
	"github.com/voxweb/voxweb/internal/browser"
	"github.com/voxweb/voxweb/internal/executor"
	"github.com/voxweb/voxweb/internal/extractor"
	"github.com/voxweb/voxweb/internal/llmclient"
	"github.com/voxweb/voxweb/internal/observability"
	"github.com/voxweb/voxweb/internal/orchestrator"
	"github.com/voxweb/voxweb/internal/planner"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	var (
		pageURL    string
		headed     bool
		jsonReport bool
	)

	runCmd := &cobra.Command{
		Use:   `run --url <page> "command"`,
		Short: "Executes one natural-language command against a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			cfg := appCfg
			if headed {
				cfg.SetBrowserHeadless(false)
			}
			command := args[0]

			if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
				pageURL = "https://" + pageURL
			}

			// 1. Planner oracle clients.
			router, err := llmclient.NewRouterFromConfig(cfg.Planner(), logger)
			if err != nil {
				return fmt.Errorf("initializing planner clients: %w", err)
			}
			defer func() {
				if cerr := router.Close(); cerr != nil {
					logger.Warn("Closing planner clients failed", zap.Error(cerr))
				}
			}()

			// 2. Browser session.
			session, err := browser.NewSession(ctx, cfg.Browser(), logger)
			if err != nil {
				return fmt.Errorf("starting browser: %w", err)
			}
			defer session.Close()

			if err := session.Navigate(ctx, pageURL); err != nil {
				return err
			}

			// 3. Control loop over the live page.
			cache := extractor.NewCache(
				extractor.New(session, cfg.Extractor(), logger),
				session, cfg.Extractor().CacheEnabled, logger)
			exec := executor.New(session, logger)
			planners := func() orchestrator.Planner {
				return planner.New(router, cfg.Planner(), logger)
			}
			orch := orchestrator.New(cache, exec, planners, cfg.Loop(), logger)

			result, err := orch.Run(ctx, command)
			if err != nil {
				return fmt.Errorf("running task: %w", err)
			}

			if jsonReport {
				if err := writeJSONReport(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				writeTaskReport(cmd.OutOrStdout(), result)
			}

			if !result.Success {
				return fmt.Errorf("task %s ended %s after %d steps", result.TaskID, result.FinalState, len(result.Steps))
			}
			return nil
		},
	}

	runCmd.Flags().StringVar(&pageURL, "url", "", "page URL to drive (required)")
	runCmd.Flags().BoolVar(&headed, "headed", false, "show the browser window")
	runCmd.Flags().BoolVar(&jsonReport, "json", false, "emit the task report as JSON")
	_ = runCmd.MarkFlagRequired("url")
	return runCmd
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func writeJSONReport(w io.Writer, result schemas.TaskResult) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeTaskReport(w io.Writer, result schemas.TaskResult) {
	fmt.Fprintf(w, "Task %s: %s\n", result.TaskID, result.FinalState)
	fmt.Fprintf(w, "  Command:  %q\n", result.Command)
	fmt.Fprintf(w, "  Steps:    %d (%d succeeded, %d failed)\n", len(result.Steps), result.Succeeded, result.Failed)
	fmt.Fprintf(w, "  Duration: %s\n", result.FinishedAt.Sub(result.StartedAt).Round(10*time.Millisecond))
	for i, step := range result.Steps {
		line := fmt.Sprintf("  %d. %s %s", i+1, step.Action.Type, step.Action.Target.String())
		if step.Action.Value != "" {
			line += fmt.Sprintf(" = %q", step.Action.Value)
		}
		line += " -> " + string(step.Status)
		if step.Error != "" {
			line += " (" + step.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
}
