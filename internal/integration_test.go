package internal_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kyleking/gh-metahistory/internal/action"
	"github.com/kyleking/gh-metahistory/internal/app"
	"github.com/kyleking/gh-metahistory/internal/config"
	"github.com/kyleking/gh-metahistory/internal/github"
	"github.com/kyleking/gh-metahistory/internal/history"
	"github.com/kyleking/gh-metahistory/internal/inputs"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
)

const coverageData = `[{"name":"Coverage","url":"https://ci.example/cov","data":{"type":"test-coverage","line":%s,"statement":90,"function":90,"branch":90}},{"name":"Docs","url":"https://docs.example","data":{"type":"documentation"}}]`

// runner simulates consecutive workflow runs sharing one disk store.
type runner struct {
	t     *testing.T
	root  string
	store kv.Store
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	root := t.TempDir()
	env := map[string]string{
		"METAHISTORY_BACKEND":       "disk",
		"METAHISTORY_DISK_ROOT":     filepath.Join(root, "store"),
		"METAHISTORY_CACHE_ENTRIES": "16",
	}
	cfg, err := config.Load(func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	store, closer, err := app.OpenStore(context.Background(), cfg, func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { closer.Close() })
	return &runner{t: t, root: root, store: store}
}

// run executes one workflow run and returns its outputs.
func (r *runner) run(event, payload, line string) (map[string]string, string, error) {
	r.t.Helper()
	dir := r.t.TempDir()
	eventPath := filepath.Join(dir, "event.json")
	outputPath := filepath.Join(dir, "output")
	if err := os.WriteFile(eventPath, []byte(payload), 0o600); err != nil {
		r.t.Fatal(err)
	}
	if err := os.WriteFile(outputPath, nil, 0o600); err != nil {
		r.t.Fatal(err)
	}

	env := map[string]string{
		"GITHUB_ACTIONS":    "true",
		"GITHUB_REPOSITORY": "atomicloud/infra",
		"GITHUB_EVENT_NAME": event,
		"GITHUB_EVENT_PATH": eventPath,
		"GITHUB_SERVER_URL": "https://github.com",
		"GITHUB_RUN_ID":     "100",
		"GITHUB_JOB":        "metadata",
		"GITHUB_OUTPUT":     outputPath,
		"INPUT_DATA":        strings.Replace(coverageData, "%s", line, 1),
		"INPUT_PREFIX":      "infra_",
	}
	getenv := func(k string) string { return env[k] }

	ghctx, err := github.NewActionContext(getenv)
	if err != nil {
		r.t.Fatalf("context: %v", err)
	}

	var log bytes.Buffer
	io := action.NewEnvIO(getenv, &log)
	retriever := inputs.NewIORetriever(io, ghctx, metadata.InputArraySchema{})
	runErr := app.New(retriever, history.NewService(r.store), io, action.NewWorkflowLogger(&log)).Start(context.Background())

	return readOutputs(r.t, outputPath), log.String(), runErr
}

func readOutputs(t *testing.T, path string) map[string]string {
	t.Helper()
	outputs := map[string]string{}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return outputs
	}
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		key, delimiter, ok := strings.Cut(scanner.Text(), "<<")
		if !ok {
			t.Fatalf("malformed output line %q", scanner.Text())
		}
		var lines []string
		for scanner.Scan() && scanner.Text() != delimiter {
			lines = append(lines, scanner.Text())
		}
		outputs[key] = strings.Join(lines, "\n")
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	return outputs
}

func decode[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("decoding %q: %v", raw, err)
	}
	return v
}

func prPayload(number int, head, base string) string {
	return `{"number":` + strconv.Itoa(number) + `,"pull_request":{"state":"open","head":{"sha":"` + head + `"},"base":{"ref":"main","sha":"` + base + `"}}}`
}

// TestEndToEnd_PushThenPullRequest records a push to main, then two runs
// of a pull request based on it, and checks every output.
func TestEndToEnd_PushThenPullRequest(t *testing.T) {
	r := newRunner(t)

	outputs, _, err := r.run("push", `{"ref":"refs/heads/main","before":"0000000","after":"base111"}`, "70")
	if err != nil {
		t.Fatalf("push run: %v", err)
	}
	if len(outputs) != 1 {
		t.Errorf("push outputs: got %v, want only current", outputs)
	}
	pushed := decode[metadata.HistoryEntry](t, outputs["current"])
	if pushed.SHA != "base111" || pushed.URL != "https://github.com/atomicloud/infra/tree/base111" {
		t.Errorf("push entry: got %+v", pushed)
	}
	if pushed.Action != "https://github.com/atomicloud/infra/actions/runs/100/jobs/metadata" {
		t.Errorf("action URL: got %s", pushed.Action)
	}

	outputs, _, err = r.run("pull_request", prPayload(12, "head111", "base111"), "75")
	if err != nil {
		t.Fatalf("first PR run: %v", err)
	}
	if outputs["before"] != "[]" {
		t.Errorf("first before: got %s, want []", outputs["before"])
	}
	if after := decode[[]metadata.HistoryEntry](t, outputs["after"]); len(after) != 1 || after[0].SHA != "head111" {
		t.Errorf("first after: got %+v", after)
	}
	if base := decode[metadata.HistoryEntry](t, outputs["base"]); base.SHA != "base111" {
		t.Errorf("base: got %+v", base)
	}

	outputs, _, err = r.run("pull_request", prPayload(12, "head222", "base111"), "80")
	if err != nil {
		t.Fatalf("second PR run: %v", err)
	}
	before := decode[[]metadata.HistoryEntry](t, outputs["before"])
	after := decode[[]metadata.HistoryEntry](t, outputs["after"])
	if len(before) != 1 || before[0].SHA != "head111" {
		t.Errorf("second before: got %+v", before)
	}
	if len(after) != 2 || after[0].SHA != "head222" || after[1].SHA != "head111" {
		t.Errorf("second after: got %+v", after)
	}
	if cov, ok := after[0].Items[0].Data.Metadata.(metadata.TestCoverage); !ok || cov.Line != 80 {
		t.Errorf("newest coverage: got %+v", after[0].Items[0].Data)
	}

	stored, err := os.ReadFile(filepath.Join(r.root, "store", "infra_12-pr.json"))
	if err != nil {
		t.Fatalf("PR history not on disk: %v", err)
	}
	if got := decode[[]metadata.HistoryEntry](t, string(stored)); len(got) != 2 {
		t.Errorf("stored history: got %d entries, want 2", len(got))
	}
}

// TestEndToEnd_PullRequestWithUnrecordedBase checks that a base commit
// recorded before adoption is simply absent from the outputs.
func TestEndToEnd_PullRequestWithUnrecordedBase(t *testing.T) {
	r := newRunner(t)

	outputs, _, err := r.run("pull_request", prPayload(3, "head", "legacy"), "50")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, ok := outputs["base"]; ok {
		t.Errorf("base should be absent, got %s", outputs["base"])
	}
	for _, key := range []string{"current", "before", "after"} {
		if _, ok := outputs[key]; !ok {
			t.Errorf("missing output %q", key)
		}
	}
}

// TestEndToEnd_InvalidInput checks that a rejected input fails the run
// without writing outputs or storage.
func TestEndToEnd_InvalidInput(t *testing.T) {
	r := newRunner(t)

	outputs, log, err := r.run("push", `{"ref":"refs/heads/main","after":"abc"}`, `"high"`)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(outputs) != 0 {
		t.Errorf("outputs written on failure: %v", outputs)
	}
	if !strings.Contains(log, "::error::") || !strings.Contains(log, "[0].data.line") {
		t.Errorf("failure report: got %q", log)
	}
	if entries, _ := os.ReadDir(filepath.Join(r.root, "store")); len(entries) != 0 {
		t.Errorf("store written on failure: %v", entries)
	}
}
