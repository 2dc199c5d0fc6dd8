package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"voicescribe/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded transcriptions",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transcriptions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, historyViews(entries))
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No transcriptions recorded")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				outcome := "ok"
				detail := ""
				if entry.Text != nil {
					detail = *entry.Text
				}
				if !entry.Succeeded() {
					outcome = entry.FailureKind
					detail = entry.Reason
				}
				rows = append(rows, []string{
					shortID(entry.ID),
					formatWhen(entry.CreatedAt),
					entry.Source,
					entry.Model,
					formatSeconds(entry.Seconds),
					outcome,
					truncate(detail, 48),
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers:    []string{"ID", "When", "Source", "Model", "Seconds", "Outcome", "Text"},
				rows:       rows,
				rightAlign: map[int]bool{4: true},
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Maximum entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the result object of one transcription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := historyStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				if errors.Is(err, history.ErrNotFound) {
					return fmt.Errorf("no transcription matches %q", args[0])
				}
				return err
			}
			return writeJSON(cmd, historyView(entry))
		},
	}
}

func historyStore(ctx *commandContext) (*history.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := ctx.openHistory(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	if store == nil {
		return nil, errors.New("history is disabled; set history.enabled = true in the config")
	}
	return store, nil
}

type historyEntryView struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Source    string `json:"source"`
	AudioPath string `json:"audio_path"`
	Model     string `json:"model,omitempty"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Result    any    `json:"result"`
	Kind      string `json:"failure_kind,omitempty"`
}

func historyView(entry history.Entry) historyEntryView {
	return historyEntryView{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Source:    entry.Source,
		AudioPath: entry.AudioPath,
		Model:     entry.Model,
		ElapsedMS: entry.Elapsed.Milliseconds(),
		Result:    entry.Result(),
		Kind:      entry.FailureKind,
	}
}

func historyViews(entries []history.Entry) []historyEntryView {
	views := make([]historyEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, historyView(entry))
	}
	return views
}
