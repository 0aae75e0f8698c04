package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"loom/internal/config"
	"loom/internal/queue"
	"loom/internal/script"
	"loom/internal/transcript"
)

func newScriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Generate the program script from completed transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, entries, err := runScript(cmd.Context(), ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Script with %d entries written to %s\n", entries, path)
			return nil
		},
	}
}

// runScript prompts the LLM with every completed source's transcript plus
// the available snippet files and writes the validated script document.
// Shared with `loom run`.
func runScript(cmdCtx context.Context, ctx *commandContext) (string, int, error) {
	var scriptPath string
	var entryCount int

	logger, err := ctx.ensureLogger()
	if err != nil {
		return "", 0, err
	}

	err = ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
		if strings.TrimSpace(cfg.LLM.APIKey) == "" {
			return fmt.Errorf("script generation requires llm.api_key (or OPENROUTER_API_KEY)")
		}

		items, err := store.List(cmdCtx, queue.StatusCompleted)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fmt.Errorf("no completed sources in the queue; run 'loom process' first")
		}

		transcripts := make(map[string]string, len(items))
		for _, item := range items {
			var result transcript.Result
			if err := json.Unmarshal([]byte(item.TranscriptJSON), &result); err != nil {
				return fmt.Errorf("item %d: stored transcript unreadable: %w", item.ID, err)
			}
			name := script.PrettifySpeaker(item.Speaker, cfg.Podcast.SpeakerNames)
			transcripts[name] = result.Text
		}

		snippetPaths, err := listSnippets(cfg.SnippetDir())
		if err != nil {
			return err
		}

		generator := script.NewGenerator(ctx.llmClient(cfg), logger)
		entries, err := generator.Generate(cmdCtx, cfg.Podcast.ScriptPrompt, transcripts, snippetPaths)
		if err != nil {
			return err
		}

		scriptPath = cfg.ScriptPath()
		entryCount = len(entries)
		return script.WriteFile(scriptPath, entries)
	})
	return scriptPath, entryCount, err
}

// listSnippets returns every exported snippet MP3 under root, sorted for a
// stable prompt payload.
func listSnippets(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".mp3") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snippets: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
