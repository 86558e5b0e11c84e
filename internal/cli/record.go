package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyleking/gh-metahistory/internal/action"
	"github.com/kyleking/gh-metahistory/internal/app"
	"github.com/kyleking/gh-metahistory/internal/github"
	"github.com/kyleking/gh-metahistory/internal/history"
	"github.com/kyleking/gh-metahistory/internal/inputs"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
)

type recordOptions struct {
	data   string
	prefix string
	sha    string
	url    string
}

func newRecordCmd(env *Env, global *globalOptions) *cobra.Command {
	opts := &recordOptions{}

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record metadata for the current commit and pull request",
		Long: `Record stores the "data" input under the current commit and, for pull
request events, prepends it to the pull request's history. Inside GitHub
Actions inputs come from INPUT_* variables and results are written to
$GITHUB_OUTPUT as "current", "before", "after" and "base". Flags override
the corresponding inputs.`,
		Example: `  gh metahistory record --data @metadata.json --prefix infra_`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(cmd.Context(), env, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "Metadata JSON array, or @file to read it from a file")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Namespace prepended to every storage key")
	cmd.Flags().StringVar(&opts.sha, "sha", "", "Commit to record (default: the event's commit)")
	cmd.Flags().StringVar(&opts.url, "url", "", "Repository URL stored with the entry (default: tree URL of the commit)")
	return cmd
}

func runRecord(ctx context.Context, env *Env, global *globalOptions, opts *recordOptions) error {
	getenv, err := opts.getenv(global.getenv(env))
	if err != nil {
		return WrapExit(ExitUsage, "", err)
	}

	inActions := github.InActions(getenv)
	var log action.Logger = action.NewTextLogger(env.Stderr, global.verbose)
	if inActions {
		log = action.NewWorkflowLogger(env.Stdout)
	}

	ghctx, err := resolveContext(ctx, env, getenv, inActions)
	if err != nil {
		action.Fail(log, err)
		return Reported(ExitFailure, err)
	}
	log.Debug(fmt.Sprintf("repository %s/%s, event %s", ghctx.Org(), ghctx.Repo(), github.EventName(ghctx.Event())))

	// Inputs are validated before any backend is touched.
	io := action.NewEnvIO(getenv, env.Stdout)
	in, err := inputs.NewIORetriever(io, ghctx, metadata.InputArraySchema{}).Retrieve().Get()
	if err != nil {
		action.Fail(log, err)
		return Reported(ExitFailure, err)
	}

	store, closer, err := global.openStore(ctx, env)
	if err != nil {
		action.Fail(log, err)
		return Reported(ExitCodeOf(err), err)
	}
	defer closer.Close()

	if err := app.New(inputs.Fixed(in), history.NewService(store), io, log).Start(ctx); err != nil {
		return Reported(ExitFailure, err)
	}

	if cached, ok := store.(*kv.CachedStore); ok {
		m := cached.Metrics()
		log.Debug(fmt.Sprintf("cache: %d hit(s), %d miss(es), %d origin write(s)", m.Hits, m.Misses, m.OriginWrites))
	}
	return nil
}

func resolveContext(ctx context.Context, env *Env, getenv func(string) string, inActions bool) (github.Context, error) {
	if inActions {
		return github.NewActionContext(getenv)
	}
	return github.NewLocalContext(ctx, env.Executor)
}

// getenv maps the record flags onto the action inputs they override.
func (o *recordOptions) getenv(base func(string) string) (func(string) string, error) {
	data := o.data
	if path, ok := strings.CutPrefix(data, "@"); ok {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read --data file: %w", err)
		}
		data = string(raw)
	}

	return overlay(base, map[string]string{
		action.InputEnvName(inputs.KeyData):   data,
		action.InputEnvName(inputs.KeyPrefix): o.prefix,
		action.InputEnvName(inputs.KeySHA):    o.sha,
		action.InputEnvName(inputs.KeyURL):    o.url,
	}), nil
}
