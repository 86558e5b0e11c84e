// Package inputs normalizes action inputs and run context into the values
// the history service records.
package inputs

import (
	"fmt"

	"github.com/kyleking/gh-metahistory/internal/action"
	"github.com/kyleking/gh-metahistory/internal/github"
	"github.com/kyleking/gh-metahistory/internal/metadata"
	"github.com/kyleking/gh-metahistory/internal/result"
)

// Input keys read from the action.
const (
	KeyData   = "data"
	KeyPrefix = "prefix"
	KeySHA    = "sha"
	KeyURL    = "url"
)

// PR identifies a pull request and the commit it is based on.
type PR struct {
	Number  int
	BaseSha string
}

// Inputs is everything needed to record one run.
type Inputs struct {
	Data      metadata.InputArray
	Prefix    string
	SHA       string
	RepoURL   string
	ActionURL string
	PR        result.Option[PR]
}

// Retriever produces Inputs.
type Retriever interface {
	Retrieve() result.Result[Inputs]
}

// Fixed is a Retriever returning inputs that were read earlier.
type Fixed Inputs

func (f Fixed) Retrieve() result.Result[Inputs] { return result.Ok(Inputs(f)) }

// IORetriever reads Inputs from action IO, falling back to the run context
// for fields left empty.
type IORetriever struct {
	io        action.IO
	context   github.Context
	validator action.Validator[metadata.InputArray]
}

// NewIORetriever creates a retriever. The validator checks the "data" input.
func NewIORetriever(io action.IO, context github.Context, validator action.Validator[metadata.InputArray]) *IORetriever {
	return &IORetriever{io: io, context: context, validator: validator}
}

// Retrieve validates the data input and resolves every other field. Only
// validation of data can fail. An event outside push, pull request and
// other panics.
func (r *IORetriever) Retrieve() result.Result[Inputs] {
	return result.Map(action.GetObject(r.io, KeyData, r.validator), func(data metadata.InputArray) Inputs {
		return Inputs{
			Data:      data,
			Prefix:    r.io.Get(KeyPrefix),
			SHA:       orDefault(r.io.Get(KeySHA), r.context.SHA()),
			RepoURL:   orDefault(r.io.Get(KeyURL), r.context.RepoURL()),
			ActionURL: r.context.ActionURL(),
			PR:        prFromEvent(r.context.Event()),
		}
	})
}

func prFromEvent(event github.Event) result.Option[PR] {
	switch e := event.(type) {
	case github.PushEvent, github.OtherEvent:
		return result.None[PR]()
	case github.PullRequestEvent:
		return result.Some(PR{Number: e.Number, BaseSha: e.BaseRefSha})
	default:
		panic(fmt.Sprintf("unreachable: unsupported event %T", event))
	}
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
