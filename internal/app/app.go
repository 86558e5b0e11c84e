// Package app wires input retrieval, the history service and action outputs
// into a single run.
package app

import (
	"context"
	"fmt"

	"github.com/kyleking/gh-metahistory/internal/action"
	"github.com/kyleking/gh-metahistory/internal/history"
	"github.com/kyleking/gh-metahistory/internal/inputs"
)

// Output keys written after a successful run.
const (
	OutputCurrent = "current"
	OutputBefore  = "before"
	OutputAfter   = "after"
	OutputBase    = "base"
)

// App records one run.
type App struct {
	retriever inputs.Retriever
	service   *history.Service
	io        action.IO
	log       action.Logger
}

// New creates an App.
func New(retriever inputs.Retriever, service *history.Service, io action.IO, log action.Logger) *App {
	return &App{retriever: retriever, service: service, io: io, log: log}
}

// Start retrieves inputs, stores the history and writes the outputs. A
// failure at any stage is reported through the logger, returned, and stops
// the run before any later side effect.
func (a *App) Start(ctx context.Context) error {
	in, err := a.retriever.Retrieve().Get()
	if err != nil {
		return a.fail(err)
	}
	a.logInputs(in)

	out, err := a.service.Store(ctx, in).Get()
	if err != nil {
		return a.fail(err)
	}

	if err := a.writeOutputs(out); err != nil {
		return a.fail(err)
	}
	return nil
}

func (a *App) logInputs(in inputs.Inputs) {
	a.log.Debug(fmt.Sprintf("recording %d item(s) under %s", len(in.Data), history.CommitKey(in.Prefix, in.SHA)))
	if pr, ok := in.PR.Get(); ok {
		a.log.Debug(fmt.Sprintf("pull request #%d, history %s, base %s", pr.Number, history.PRKey(in.Prefix, pr.Number), pr.BaseSha))
	}
}

func (a *App) writeOutputs(out history.Output) error {
	if err := a.io.SetObject(OutputCurrent, out.Current); err != nil {
		return err
	}
	if pre, ok := out.PreImage.Get(); ok {
		if err := a.io.SetObject(OutputBefore, pre); err != nil {
			return err
		}
	}
	if after, ok := out.AfterImage.Get(); ok {
		if err := a.io.SetObject(OutputAfter, after); err != nil {
			return err
		}
	}

	base, ok := out.Base.Get()
	if !ok {
		if out.AfterImage.IsSome() {
			a.log.Debug("base commit has no recorded entry")
		}
		return nil
	}
	a.log.Debug("base entry found for " + base.SHA)
	return a.io.SetObject(OutputBase, base)
}

func (a *App) fail(err error) error {
	action.Fail(a.log, err)
	return err
}
