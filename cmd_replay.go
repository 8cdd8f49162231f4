package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/xiaot623/gogo/agentstatus/internal/adapter/statusclient"
	"github.com/xiaot623/gogo/agentstatus/internal/artifact"
	"github.com/xiaot623/gogo/agentstatus/internal/config"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
	"github.com/xiaot623/gogo/agentstatus/internal/logging"
	"github.com/xiaot623/gogo/agentstatus/internal/repository"
	"github.com/xiaot623/gogo/agentstatus/internal/service"
	"github.com/xiaot623/gogo/agentstatus/internal/tools"
	"github.com/xiaot623/gogo/agentstatus/policy"
)

var (
	replayPublish   bool
	replayPolicy    string
	replayArtifacts bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayPublish, "publish", false, "send events to a running server instead of replaying locally")
	replayCmd.Flags().StringVar(&replayPolicy, "policy", "", "rego policy file applied to local replays")
	replayCmd.Flags().BoolVar(&replayArtifacts, "artifacts", false, "also print the collected tool outputs")
	replayCmd.Flags().StringVar(&rpcAddr, "rpc-addr", "localhost:8082", "status RPC address used with --publish")
	replayCmd.Flags().StringVar(&sessionID, "session", "", "session id used with --publish")
}

var replayCmd = &cobra.Command{
	Use:   "replay <events.jsonl>",
	Short: "Feed recorded lifecycle events through the status pipeline",
	Long: `Reads one event per line, {"kind": "agent.started", "payload": {...}},
and either builds the traces in memory and prints them, or publishes the
events to a running server.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open events: %w", err)
		}
		defer f.Close()

		events, err := readEvents(f)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if replayPublish {
			client := statusclient.NewClient(rpcAddr, "")
			for _, ev := range events {
				if err := client.PublishRaw(ctx, sessionID, ev.Kind, ev.Payload); err != nil {
					return fmt.Errorf("line %d: %w", ev.Line, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published %d events\n", len(events))
			return nil
		}
		return replayLocal(ctx, cmd.OutOrStdout(), events)
	},
}

type recordedEvent struct {
	Line    int
	Kind    domain.EventKind
	RunID   string
	Payload json.RawMessage
}

// readEvents parses a JSON-lines event log. Blank lines are skipped.
func readEvents(r io.Reader) ([]recordedEvent, error) {
	var out []recordedEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return nil, fmt.Errorf("line %d: invalid JSON", line)
		}
		kind := gjson.GetBytes(raw, "kind")
		payload := gjson.GetBytes(raw, "payload")
		if kind.Type != gjson.String || !payload.IsObject() {
			return nil, fmt.Errorf("line %d: want {\"kind\": string, \"payload\": object}", line)
		}
		out = append(out, recordedEvent{
			Line:    line,
			Kind:    domain.EventKind(kind.String()),
			RunID:   payload.Get("run_id").String(),
			Payload: json.RawMessage(payload.Raw),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func replayLocal(ctx context.Context, w io.Writer, events []recordedEvent) error {
	engine, err := policy.NewEngineFromFile(ctx, replayPolicy)
	if err != nil {
		return err
	}
	cfg := config.Load()
	svc := service.New(repository.NewMemoryStore(), engine, tools.DefaultRegistry, cfg, logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}))

	var runs []string
	seen := map[string]bool{}
	for _, ev := range events {
		decoded, err := domain.DecodeEvent(ev.Kind, ev.Payload)
		if err != nil {
			return fmt.Errorf("line %d: %w", ev.Line, err)
		}
		if err := svc.Dispatch(ctx, decoded); err != nil {
			return fmt.Errorf("line %d: %w", ev.Line, err)
		}
		if ev.RunID != "" && !seen[ev.RunID] {
			seen[ev.RunID] = true
			runs = append(runs, ev.RunID)
		}
	}

	artifacts := artifact.NewMemoryStorage()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, runID := range runs {
		update, err := svc.GetLatest(ctx, runID)
		if err != nil {
			return err
		}
		if err := enc.Encode(map[string]any{"run_id": runID, "status": update}); err != nil {
			return err
		}
		artifact.ArchiveToolResults(artifacts, update)
	}
	if replayArtifacts {
		return enc.Encode(map[string]any{"artifacts": artifacts.All()})
	}
	return nil
}
