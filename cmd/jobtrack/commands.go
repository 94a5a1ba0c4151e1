package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/nugget/jobtrack/internal/conversation"
	"github.com/nugget/jobtrack/internal/router"
)

// askResult is the printed result of one invocation.
type askResult struct {
	InvocationID string `json:"invocation_id,omitempty"`
	Message      string `json:"message"`
	Intent       string `json:"intent"`
	Reply        string `json:"reply,omitempty"`
	Turns        int    `json:"turns"`
	Error        string `json:"error,omitempty"`
}

func (a *app) ask(ctx context.Context, message string) askResult {
	res := askResult{Message: message}
	s, err := a.router.Invoke(ctx,
		[]conversation.Turn{conversation.UserTurn{Text: message}},
		router.WithUserID(a.cfg.UserID),
	)
	if s != nil {
		res.InvocationID = s.ID()
		res.Intent = s.Decision().String()
		res.Turns = s.Log().Len()
		res.Reply = finalReply(s.Log())
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// finalReply returns the text of the last assistant turn that has any.
func finalReply(log *conversation.Log) string {
	turns := log.Turns()
	for i := len(turns) - 1; i >= 0; i-- {
		if t, ok := turns[i].(conversation.AssistantTurn); ok && t.Text != "" {
			return t.Text
		}
	}
	return ""
}

func runAsk(ctx context.Context, stdout, stderr io.Writer, opts options, message string) error {
	a, err := openApp(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.ask(ctx, message)
	if err := printResults(stdout, opts.outputFmt, []askResult{res}); err != nil {
		return err
	}
	if res.Error != "" {
		return fmt.Errorf("ask: %s", res.Error)
	}
	return nil
}

func runBatch(ctx context.Context, stdout, stderr io.Writer, opts options, path string) error {
	messages, err := readMessages(path)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, stderr, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	results := make([]askResult, len(messages))
	var g errgroup.Group
	g.SetLimit(a.cfg.Batch.Concurrency)
	for i, msg := range messages {
		g.Go(func() error {
			results[i] = a.ask(ctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	if err := printResults(stdout, opts.outputFmt, results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	a.logger.Info("batch complete", "requests", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("batch: %d of %d requests failed", failed, len(results))
	}
	return nil
}

// readMessages returns the non-empty, trimmed lines of path.
func readMessages(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var messages []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			messages = append(messages, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return messages, nil
}

func printResults(w io.Writer, outputFmt string, results []askResult) error {
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(results) == 1 {
			return enc.Encode(results[0])
		}
		return enc.Encode(results)
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if len(results) > 1 {
			fmt.Fprintf(w, "> %s\n", r.Message)
		}
		fmt.Fprintf(w, "intent: %s\n", r.Intent)
		if r.Reply != "" {
			fmt.Fprintln(w, r.Reply)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "error: %s\n", r.Error)
		}
	}
	return nil
}

func runApplications(ctx context.Context, stdout, stderr io.Writer, opts options) error {
	cfg, logger, err := setup(stderr, opts)
	if err != nil {
		return err
	}
	db, store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	apps, err := store.ListByUser(ctx, cfg.UserID)
	if err != nil {
		return err
	}

	if opts.outputFmt == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(apps)
	}
	if len(apps) == 0 {
		fmt.Fprintf(stdout, "No applications logged for %s.\n", cfg.UserID)
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCOMPANY\tROLE\tSTATUS\tSOURCE")
	for _, app := range apps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", app.Date, app.Company, app.Role, app.Status, app.Source)
	}
	return tw.Flush()
}
