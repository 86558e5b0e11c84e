package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyleking/gh-metahistory/internal/history"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
	"github.com/kyleking/gh-metahistory/internal/result"
)

func newDeleteCmd(env *Env, global *globalOptions) *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove recorded history",
		Long:  "Delete removes the stored entry of a commit or the whole history of a pull request. Recording never deletes anything on its own.",
	}
	cmd.PersistentFlags().StringVar(&prefix, "prefix", "", "Namespace the history was recorded under")

	cmd.AddCommand(&cobra.Command{
		Use:   "commit <sha>",
		Short: "Delete the entry recorded for a commit",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := history.CommitKey(prefix, args[0])
			return runDelete(cmd.Context(), env, global, key, func(store kv.Store) result.Option[error] {
				return kv.NewRepository[metadata.HistoryEntry](store).Delete(cmd.Context(), key)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pr <number>",
		Short: "Delete the history recorded for a pull request",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parsePRNumber(args[0])
			if err != nil {
				return err
			}
			key := history.PRKey(prefix, number)
			return runDelete(cmd.Context(), env, global, key, func(store kv.Store) result.Option[error] {
				return kv.NewRepository[[]metadata.HistoryEntry](store).Delete(cmd.Context(), key)
			})
		},
	})

	return cmd
}

func runDelete(ctx context.Context, env *Env, global *globalOptions, key string, del func(kv.Store) result.Option[error]) error {
	store, closer, err := global.openStore(ctx, env)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err, failed := del(store).Get(); failed {
		if errors.Is(err, kv.ErrNotFound) {
			return NewExitError(ExitFailure, "nothing recorded under %s", key)
		}
		return err
	}
	fmt.Fprintf(env.Stdout, "Deleted %s\n", key)
	return nil
}
