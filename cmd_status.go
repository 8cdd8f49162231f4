package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/agentstatus/internal/adapter/statusclient"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

var (
	rpcAddr   string
	httpURL   string
	sessionID string
	watchFrom int
)

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.AddCommand(statusGetCmd, statusDeleteCmd, statusWatchCmd, statusNewRunCmd)

	statusCmd.PersistentFlags().StringVar(&rpcAddr, "rpc-addr", "localhost:8082", "status RPC address")
	statusCmd.PersistentFlags().StringVar(&httpURL, "http-url", "http://localhost:8080", "status HTTP base URL")
	statusCmd.PersistentFlags().StringVar(&sessionID, "session", "", "session id for session-scoped stores")
	statusWatchCmd.Flags().IntVar(&watchFrom, "from", 0, "skip this many records")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect run traces on a running server",
}

var statusGetCmd = &cobra.Command{
	Use:   "get <run_id>",
	Short: "Print the trace of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := statusclient.NewClient(rpcAddr, httpURL)
		update, err := client.GetLatest(cmd.Context(), sessionID, args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(update, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

var statusDeleteCmd = &cobra.Command{
	Use:   "delete <run_id>",
	Short: "Discard the trace of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := statusclient.NewClient(rpcAddr, httpURL)
		if err := client.Delete(cmd.Context(), sessionID, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var statusWatchCmd = &cobra.Command{
	Use:   "watch <run_id>",
	Short: "Follow a run until its root agent finishes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := statusclient.NewClient(rpcAddr, httpURL)
		out := cmd.OutOrStdout()
		err := client.Watch(ctx, sessionID, args[0], watchFrom, func(rec domain.Record) error {
			fmt.Fprintln(out, describeRecord(rec))
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var statusNewRunCmd = &cobra.Command{
	Use:   "new-run",
	Short: "Ask the server for a fresh run id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := statusclient.NewClient(rpcAddr, httpURL)
		id, err := client.NewRunID(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

// describeRecord renders one line per record: title, runner and the most
// telling payload field.
func describeRecord(rec domain.Record) string {
	env := rec.Header()
	line := fmt.Sprintf("%-22s %-14s %s", rec.Type().Title(), env.AgentRunnerID, env.AgentName)
	if env.CallingAgentID != nil {
		line += " <- " + *env.CallingAgentID
	}
	switch r := rec.(type) {
	case domain.AgentIteration:
		line += fmt.Sprintf(" loop=%d", r.LoopCount)
	case domain.TextGenerated:
		line += fmt.Sprintf(" %q", r.GeneratedText)
	case domain.ToolSelected:
		line += " " + r.ToolName + " " + r.ToolInput
	case domain.ToolStarted:
		line += " " + r.ToolName + " " + r.ToolInput
	case domain.ToolFinished:
		line += " " + r.ToolName + " => " + r.ToolResults
	}
	return line
}
