package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"podforge/internal/podcast"
)

func newCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		description  string
		voice        string
		scriptFile   string
		sourceURLs   []string
		materialsSet string
		wait         bool
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Queue a new podcast generation job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := createPayload{
				Title:        args[0],
				Description:  description,
				Voice:        voice,
				SourceURLs:   sourceURLs,
				MaterialsSet: materialsSet,
			}
			if scriptFile != "" {
				data, err := os.ReadFile(scriptFile)
				if err != nil {
					return fmt.Errorf("read script file: %w", err)
				}
				payload.Script = string(data)
			}

			client := ctx.client()
			created, err := client.create(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if !wait {
				if *ctx.json {
					return writeJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintln(cmd.OutOrStdout(), created.ID)
				return nil
			}

			snap, err := waitForTerminal(cmd, client, created.ID)
			if err != nil {
				return err
			}
			if *ctx.json {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			renderSnapshots(cmd, snap)
			if snap.Status == "failed" {
				return fmt.Errorf("job failed: %s", snap.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Episode description")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice hint for synthesis")
	cmd.Flags().StringVar(&scriptFile, "script-file", "", "Use the script from this file instead of generating one")
	cmd.Flags().StringArrayVar(&sourceURLs, "source-url", nil, "Source URL (repeatable)")
	cmd.Flags().StringVar(&materialsSet, "materials-set", "", `Materials set to use: "1" or "2"`)
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	return cmd
}

func waitForTerminal(cmd *cobra.Command, client *apiClient, id string) (podcast.Snapshot, error) {
	for {
		snap, err := client.get(cmd.Context(), id)
		if err != nil {
			return podcast.Snapshot{}, err
		}
		switch snap.Status {
		case "done", "failed", "cancelled":
			return snap, nil
		}
		select {
		case <-cmd.Context().Done():
			return podcast.Snapshot{}, cmd.Context().Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the state of a podcast job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			if full {
				dump, err := client.dump(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), dump)
			}
			snap, err := client.get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if *ctx.json {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			renderSnapshots(cmd, snap)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Show the raw job dump including the script")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		status string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List podcast jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().list(cmd.Context(), status, limit, offset)
			if err != nil {
				return err
			}
			if *ctx.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			renderSnapshots(cmd, result.Items...)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d job(s)\n", len(result.Items), result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (queued|running|done|failed|cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum jobs to return (default 25)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Jobs to skip")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Cancel an unfinished job or delete a finished one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := ctx.client().remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if *ctx.json {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			verb := "deleted"
			if snap.Status == "cancelled" {
				verb = "cancelled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, snap.ID)
			return nil
		},
	}
}

func newRescanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Adopt episode audio already present in the storage directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := ctx.client().rescan(cmd.Context())
			if err != nil {
				return err
			}
			if *ctx.json {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "adopted %d episode(s), %d total\n", result.Added, result.Total)
			return nil
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the daemon is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.client().health(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func renderSnapshots(cmd *cobra.Command, snaps ...podcast.Snapshot) {
	headers := []string{"ID", "STATUS", "PROGRESS", "TITLE", "AUDIO", "UPDATED"}
	rows := make([][]string, 0, len(snaps))
	for _, snap := range snaps {
		audio := snap.AudioURL
		if audio == "" && snap.Error != "" {
			audio = "error: " + truncate(snap.Error, 40)
		}
		rows = append(rows, []string{
			snap.ID,
			snap.Status,
			fmt.Sprintf("%3.0f%%", snap.Progress*100),
			truncate(snap.Title, 40),
			audio,
			snap.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}))
}

func truncate(s string, limit int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-1]) + "…"
}
