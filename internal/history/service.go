// Package history records metadata snapshots per commit and per pull
// request.
package history

import (
	"context"
	"fmt"

	"github.com/kyleking/gh-metahistory/internal/inputs"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
	"github.com/kyleking/gh-metahistory/internal/result"
)

// CommitKey is the storage key of a commit's entry.
func CommitKey(prefix, sha string) string {
	return fmt.Sprintf("%s%s-commit.json", prefix, sha)
}

// PRKey is the storage key of a pull request's history list.
func PRKey(prefix string, number int) string {
	return fmt.Sprintf("%s%d-pr.json", prefix, number)
}

// Output is the result of recording one run. PreImage, AfterImage and Base
// are only set for pull requests, and Base only when the base commit was
// recorded before.
type Output struct {
	Current    metadata.HistoryEntry
	PreImage   result.Option[[]metadata.HistoryEntry]
	AfterImage result.Option[[]metadata.HistoryEntry]
	Base       result.Option[metadata.HistoryEntry]
}

// Update is a pull request history list before and after adding an entry.
type Update struct {
	PreImage   []metadata.HistoryEntry
	AfterImage []metadata.HistoryEntry
}

// Service writes history entries through typed repositories. It performs
// no locking: concurrent runs for the same pull request can lose updates.
type Service struct {
	commits kv.Repository[metadata.HistoryEntry]
	prs     kv.Repository[[]metadata.HistoryEntry]
}

// NewService creates a Service storing JSON documents in store.
func NewService(store kv.Store) *Service {
	return NewServiceWithRepositories(
		kv.NewRepository[metadata.HistoryEntry](store),
		kv.NewRepository[[]metadata.HistoryEntry](store),
	)
}

// NewServiceWithRepositories creates a Service over explicit repositories.
func NewServiceWithRepositories(commits kv.Repository[metadata.HistoryEntry], prs kv.Repository[[]metadata.HistoryEntry]) *Service {
	return &Service{commits: commits, prs: prs}
}

// Store writes the commit entry, then for pull requests prepends it to the
// PR history and looks up the base commit. The first failure is returned
// unchanged and later steps are skipped. Earlier writes are not undone.
func (s *Service) Store(ctx context.Context, in inputs.Inputs) result.Result[Output] {
	entry := metadata.NewHistoryEntry(in.Data, in.SHA, in.RepoURL, in.ActionURL)

	return result.AndThen(s.WriteSHA(ctx, in.Prefix, in.SHA, entry), func(struct{}) result.Result[Output] {
		pr, ok := in.PR.Get()
		if !ok {
			return result.Ok(Output{Current: entry})
		}
		return result.AndThen(s.WritePR(ctx, in.Prefix, pr, entry), func(update Update) result.Result[Output] {
			return result.Map(s.GetBaseSHA(ctx, in.Prefix, pr), func(base result.Option[metadata.HistoryEntry]) Output {
				return BuildOutput(entry, update, base)
			})
		})
	})
}

// WriteSHA stores entry under the commit key, replacing any previous entry.
func (s *Service) WriteSHA(ctx context.Context, prefix, sha string, entry metadata.HistoryEntry) result.Result[struct{}] {
	return result.AsErr(s.commits.Write(ctx, CommitKey(prefix, sha), entry), struct{}{})
}

// WritePR prepends entry to the pull request's history. A missing history
// counts as empty.
func (s *Service) WritePR(ctx context.Context, prefix string, pr inputs.PR, entry metadata.HistoryEntry) result.Result[Update] {
	key := PRKey(prefix, pr.Number)
	existing := result.Map(s.prs.Read(ctx, key), func(o result.Option[[]metadata.HistoryEntry]) []metadata.HistoryEntry {
		return o.UnwrapOr(nil)
	})

	return result.AndThen(existing, func(pre []metadata.HistoryEntry) result.Result[Update] {
		if pre == nil {
			pre = []metadata.HistoryEntry{}
		}
		after := make([]metadata.HistoryEntry, 0, len(pre)+1)
		after = append(after, entry)
		after = append(after, pre...)
		return result.AsErr(s.prs.Write(ctx, key, after), Update{PreImage: pre, AfterImage: after})
	})
}

// GetBaseSHA reads the entry of the pull request's base commit. A base that
// was never recorded yields Ok(None).
func (s *Service) GetBaseSHA(ctx context.Context, prefix string, pr inputs.PR) result.Result[result.Option[metadata.HistoryEntry]] {
	return s.commits.Read(ctx, CommitKey(prefix, pr.BaseSha))
}

// BuildOutput assembles the Output of a pull request run.
func BuildOutput(current metadata.HistoryEntry, update Update, base result.Option[metadata.HistoryEntry]) Output {
	return Output{
		Current:    current,
		PreImage:   result.Some(update.PreImage),
		AfterImage: result.Some(update.AfterImage),
		Base:       base,
	}
}
