package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cli/go-gh/v2/pkg/jsonpretty"
	"github.com/spf13/cobra"

	"github.com/kyleking/gh-metahistory/internal/history"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
	"github.com/kyleking/gh-metahistory/internal/ui"
)

type showOptions struct {
	prefix  string
	json    bool
	item    string
	copy    bool
	web     bool
	base    string
	compare bool
}

func newShowCmd(env *Env, global *globalOptions) *cobra.Command {
	opts := &showOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show recorded history for a commit or pull request",
	}
	cmd.PersistentFlags().StringVar(&opts.prefix, "prefix", "", "Namespace the history was recorded under")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print the stored JSON")
	cmd.PersistentFlags().StringVar(&opts.item, "item", "", "Only show items whose name fuzzy-matches this pattern")
	cmd.PersistentFlags().BoolVar(&opts.copy, "copy", false, "Copy the JSON to the clipboard")
	cmd.PersistentFlags().BoolVar(&opts.web, "web", false, "Open the action run in the browser")

	cmd.AddCommand(&cobra.Command{
		Use:   "commit <sha>",
		Short: "Show the entry recorded for a commit",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowCommit(cmd.Context(), env, global, opts, args[0])
		},
	})

	prCmd := &cobra.Command{
		Use:   "pr <number>",
		Short: "Show the history recorded for a pull request, newest first",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			return runShowPR(cmd.Context(), env, global, opts, number)
		},
	}
	prCmd.Flags().StringVar(&opts.base, "base", "", "Also show the entry of this base commit")
	prCmd.Flags().BoolVar(&opts.compare, "compare", false, "Compare the newest run with the base commit, or with the previous run")
	cmd.AddCommand(prCmd)

	return cmd
}

func runShowCommit(ctx context.Context, env *Env, global *globalOptions, opts *showOptions, sha string) error {
	store, closer, err := global.openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closer.Close()

	key := history.CommitKey(opts.prefix, sha)
	entry, err := readEntry(ctx, store, key)
	if err != nil {
		return err
	}
	entry.Items = ui.FilterItems(entry.Items, opts.item)

	if err := opts.emit(env, entry, ui.RenderEntry(entry)); err != nil {
		return err
	}
	if opts.web {
		return env.Browse(entry.Action)
	}
	return nil
}

func runShowPR(ctx context.Context, env *Env, global *globalOptions, opts *showOptions, number int) error {
	store, closer, err := global.openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closer.Close()

	key := history.PRKey(opts.prefix, number)
	found, err := kv.NewRepository[[]metadata.HistoryEntry](store).Read(ctx, key).Get()
	if err != nil {
		return err
	}
	entries, ok := found.Get()
	if !ok {
		return NewExitError(ExitFailure, "nothing recorded for pull request #%d under %s", number, key)
	}
	entries = ui.FilterEntries(entries, opts.item)

	var base *metadata.HistoryEntry
	if opts.base != "" {
		b, err := readEntry(ctx, store, history.CommitKey(opts.prefix, opts.base))
		if err != nil {
			return err
		}
		b.Items = ui.FilterItems(b.Items, opts.item)
		base = &b
	}

	rendered := ui.RenderHistory(number, entries, base)
	if opts.compare {
		rendered = compareView(entries, base)
	}
	if err := opts.emit(env, entries, rendered); err != nil {
		return err
	}
	if opts.web && len(entries) > 0 {
		return env.Browse(entries[0].Action)
	}
	return nil
}

func compareView(entries []metadata.HistoryEntry, base *metadata.HistoryEntry) string {
	switch {
	case len(entries) == 0:
		return ui.SubtitleStyle.Render("No recorded runs")
	case base != nil:
		return ui.Compare(*base, entries[0])
	case len(entries) > 1:
		return ui.Compare(entries[1], entries[0])
	default:
		return ui.RenderEntry(entries[0])
	}
}

func readEntry(ctx context.Context, store kv.Store, key string) (metadata.HistoryEntry, error) {
	found, err := kv.NewRepository[metadata.HistoryEntry](store).Read(ctx, key).Get()
	if err != nil {
		return metadata.HistoryEntry{}, err
	}
	entry, ok := found.Get()
	if !ok {
		return metadata.HistoryEntry{}, NewExitError(ExitFailure, "nothing recorded under %s", key)
	}
	return entry, nil
}

// emit prints value as JSON or the rendered view, and copies the JSON when
// requested.
func (o *showOptions) emit(env *Env, value any, rendered string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}

	if o.json {
		if err := jsonpretty.Format(env.Stdout, bytes.NewReader(raw), "  ", env.ColorEnabled); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(env.Stdout, rendered)
	}

	if o.copy {
		if err := env.Copy(string(raw)); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(env.Stderr, "Copied JSON to clipboard")
	}
	return nil
}

func parsePRNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, NewExitError(ExitUsage, "invalid pull request number %q", arg)
	}
	return n, nil
}
