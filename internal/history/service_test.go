package history

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kyleking/gh-metahistory/internal/inputs"
	"github.com/kyleking/gh-metahistory/internal/kv"
	"github.com/kyleking/gh-metahistory/internal/metadata"
	"github.com/kyleking/gh-metahistory/internal/result"
)

// recordingStore wraps a MemoryStore, logs every call as "op key" and can
// fail selected calls.
type recordingStore struct {
	*kv.MemoryStore
	calls []string
	fail  map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: kv.NewMemoryStore(), fail: map[string]error{}}
}

func (s *recordingStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.calls = append(s.calls, "get "+key)
	if err := s.fail["get "+key]; err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *recordingStore) Put(ctx context.Context, key string, value []byte) error {
	s.calls = append(s.calls, "put "+key)
	if err := s.fail["put "+key]; err != nil {
		return err
	}
	return s.MemoryStore.Put(ctx, key, value)
}

func (s *recordingStore) countPrefix(prefix string) int {
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func items(name string) metadata.InputArray {
	return metadata.InputArray{
		{Name: name, URL: "https://ci.example/" + name, Data: metadata.Data{Metadata: metadata.TestResult{Pass: 1}}},
	}
}

func prInputs(sha string, number int, baseSha string) inputs.Inputs {
	return inputs.Inputs{
		Data:      items(sha),
		Prefix:    "infra_",
		SHA:       sha,
		RepoURL:   "https://github.com/o/r/tree/" + sha,
		ActionURL: "https://github.com/o/r/actions/runs/1/jobs/build",
		PR:        result.Some(inputs.PR{Number: number, BaseSha: baseSha}),
	}
}

func TestKeys(t *testing.T) {
	if got := CommitKey("infra_", "6136bd8"); got != "infra_6136bd8-commit.json" {
		t.Errorf("CommitKey: got %q", got)
	}
	if got := PRKey("astrovault-", 72); got != "astrovault-72-pr.json" {
		t.Errorf("PRKey: got %q", got)
	}
	if got := CommitKey("", "abc"); got != "abc-commit.json" {
		t.Errorf("CommitKey without prefix: got %q", got)
	}
}

func TestStore_FirstPullRequestCommit(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	svc := NewService(store)

	sha := "6136bd8e1c1c1b4bcbb1b3f6a4e6e0a3c5d7f9a1"
	base := "168464a0d62cb1d6ff7c1e2ccb9ef93d7d1b0b50"
	in := prInputs(sha, 5, base)

	out := svc.Store(ctx, in)
	if out.IsErr() {
		t.Fatalf("Store failed: %v", out.UnwrapErr())
	}

	wantCalls := []string{
		"put infra_" + sha + "-commit.json",
		"get infra_5-pr.json",
		"put infra_5-pr.json",
		"get infra_" + base + "-commit.json",
	}
	if !reflect.DeepEqual(store.calls, wantCalls) {
		t.Errorf("calls:\n got %v\nwant %v", store.calls, wantCalls)
	}

	entry := metadata.NewHistoryEntry(in.Data, sha, in.RepoURL, in.ActionURL)
	got := out.Unwrap()
	if !reflect.DeepEqual(got.Current, entry) {
		t.Errorf("Current: got %+v, want %+v", got.Current, entry)
	}
	pre, ok := got.PreImage.Get()
	if !ok || pre == nil || len(pre) != 0 {
		t.Errorf("PreImage: got (%v, %v), want Some([])", pre, ok)
	}
	after, ok := got.AfterImage.Get()
	if !ok || !reflect.DeepEqual(after, []metadata.HistoryEntry{entry}) {
		t.Errorf("AfterImage: got (%v, %v)", after, ok)
	}
	if got.Base.IsSome() {
		t.Errorf("Base: got %v, want None", got.Base)
	}

	raw, err := store.MemoryStore.Get(ctx, "infra_5-pr.json")
	if err != nil {
		t.Fatalf("PR key not written: %v", err)
	}
	var stored []metadata.HistoryEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("stored PR history is not JSON: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("stored PR history: got %d entries, want 1", len(stored))
	}
}

func TestStore_PushNeverTouchesPR(t *testing.T) {
	store := newRecordingStore()
	svc := NewService(store)

	in := prInputs("abc", 0, "")
	in.PR = result.None[inputs.PR]()

	out := svc.Store(context.Background(), in)
	if out.IsErr() {
		t.Fatalf("Store failed: %v", out.UnwrapErr())
	}

	if want := []string{"put infra_abc-commit.json"}; !reflect.DeepEqual(store.calls, want) {
		t.Errorf("calls: got %v, want %v", store.calls, want)
	}
	got := out.Unwrap()
	if got.PreImage.IsSome() || got.AfterImage.IsSome() || got.Base.IsSome() {
		t.Errorf("only Current should be set, got %+v", got)
	}
}

func TestStore_PRHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := NewService(store)

	var last Output
	var entries []metadata.HistoryEntry
	for _, sha := range []string{"e1", "e2", "e3"} {
		in := prInputs(sha, 7, "base")
		out := svc.Store(ctx, in)
		if out.IsErr() {
			t.Fatalf("Store %s failed: %v", sha, out.UnwrapErr())
		}
		last = out.Unwrap()
		entries = append(entries, last.Current)
	}

	wantPre := []metadata.HistoryEntry{entries[1], entries[0]}
	wantAfter := []metadata.HistoryEntry{entries[2], entries[1], entries[0]}
	if got := last.PreImage.Unwrap(); !reflect.DeepEqual(got, wantPre) {
		t.Errorf("PreImage: got %v, want %v", got, wantPre)
	}
	if got := last.AfterImage.Unwrap(); !reflect.DeepEqual(got, wantAfter) {
		t.Errorf("AfterImage: got %v, want %v", got, wantAfter)
	}

	stored := kv.NewRepository[[]metadata.HistoryEntry](store).Read(ctx, PRKey("infra_", 7))
	if got := stored.Unwrap().Unwrap(); !reflect.DeepEqual(got, wantAfter) {
		t.Errorf("stored history: got %v, want %v", got, wantAfter)
	}
}

func TestStore_BaseFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemoryStore())

	baseIn := prInputs("base-sha", 0, "")
	baseIn.PR = result.None[inputs.PR]()
	baseOut := svc.Store(ctx, baseIn).Unwrap()

	out := svc.Store(ctx, prInputs("head-sha", 3, "base-sha")).Unwrap()
	base, ok := out.Base.Get()
	if !ok {
		t.Fatal("Base should be found")
	}
	if !reflect.DeepEqual(base, baseOut.Current) {
		t.Errorf("Base: got %+v, want %+v", base, baseOut.Current)
	}
}

func TestStore_AllVariantsRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemoryStore())

	data := metadata.InputArray{
		{Name: "codecov", URL: "https://codecov.io/gh/o/r", Data: metadata.Data{Metadata: metadata.TestCoverage{Line: 55.5, Statement: 72, Function: 100, Branch: 0}}},
		{Name: "unit", URL: "https://ci.example/unit", Data: metadata.Data{Metadata: metadata.TestResult{Pass: 20, Fail: 1, Skip: 3}}},
		{Name: "docs", URL: "https://pkg.go.dev/x", Data: metadata.Data{Metadata: metadata.Documentation{}}},
		{Name: "goreportcard", URL: "https://goreportcard.com/report/x", Data: metadata.Data{Metadata: metadata.CodeQuality{QualityRating: "A+"}}},
	}
	baseIn := prInputs("variants", 0, "")
	baseIn.Data = data
	baseIn.PR = result.None[inputs.PR]()
	stored := svc.Store(ctx, baseIn).Unwrap().Current

	got, ok := svc.GetBaseSHA(ctx, "infra_", inputs.PR{Number: 9, BaseSha: "variants"}).Unwrap().Get()
	if !ok {
		t.Fatal("entry should be readable back")
	}
	if !reflect.DeepEqual(got, stored) {
		t.Errorf("round trip:\n got %+v\nwant %+v", got, stored)
	}
	if !reflect.DeepEqual(got.Items, data) {
		t.Errorf("items:\n got %+v\nwant %+v", got.Items, data)
	}
}

func TestStore_CommitOverwrite(t *testing.T) {
	ctx := context.Background()
	svc := NewService(kv.NewMemoryStore())

	in := prInputs("same", 0, "")
	in.PR = result.None[inputs.PR]()
	svc.Store(ctx, in).Unwrap()

	in.Data = items("second")
	svc.Store(ctx, in).Unwrap()

	got := svc.GetBaseSHA(ctx, "infra_", inputs.PR{BaseSha: "same"}).Unwrap().Unwrap()
	if len(got.Items) != 1 || got.Items[0].Name != "second" {
		t.Errorf("commit entry: got %+v, want second write", got.Items)
	}
}

func TestStore_FailurePropagation(t *testing.T) {
	errStore := errors.New("store unavailable")

	tests := []struct {
		name      string
		failOn    string
		wantCalls []string
	}{
		{
			name:      "commit write fails",
			failOn:    "put infra_h-commit.json",
			wantCalls: []string{"put infra_h-commit.json"},
		},
		{
			name:      "pr read fails",
			failOn:    "get infra_9-pr.json",
			wantCalls: []string{"put infra_h-commit.json", "get infra_9-pr.json"},
		},
		{
			name:      "pr write fails",
			failOn:    "put infra_9-pr.json",
			wantCalls: []string{"put infra_h-commit.json", "get infra_9-pr.json", "put infra_9-pr.json"},
		},
		{
			name:   "base read fails",
			failOn: "get infra_b-commit.json",
			wantCalls: []string{
				"put infra_h-commit.json", "get infra_9-pr.json", "put infra_9-pr.json", "get infra_b-commit.json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newRecordingStore()
			store.fail[tt.failOn] = errStore
			svc := NewService(store)

			out := svc.Store(context.Background(), prInputs("h", 9, "b"))
			if !out.IsErr() {
				t.Fatal("expected Err")
			}
			if !errors.Is(out.UnwrapErr(), errStore) {
				t.Errorf("error: got %v, want %v", out.UnwrapErr(), errStore)
			}
			if !reflect.DeepEqual(store.calls, tt.wantCalls) {
				t.Errorf("calls:\n got %v\nwant %v", store.calls, tt.wantCalls)
			}
		})
	}
}

func TestStore_PartialWriteIsKept(t *testing.T) {
	ctx := context.Background()
	store := newRecordingStore()
	store.fail["put infra_9-pr.json"] = errors.New("rate limited")
	svc := NewService(store)

	if out := svc.Store(ctx, prInputs("h", 9, "b")); !out.IsErr() {
		t.Fatal("expected Err")
	}
	if _, err := store.MemoryStore.Get(ctx, "infra_h-commit.json"); err != nil {
		t.Errorf("commit entry should persist after PR failure: %v", err)
	}
	if store.countPrefix("put infra_9-pr.json") != 1 {
		t.Errorf("PR write attempts: got %d, want 1", store.countPrefix("put infra_9-pr.json"))
	}
}

func TestWritePR_CorruptHistory(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	if err := store.Put(ctx, "p1-pr.json", []byte("not json")); err != nil {
		t.Fatal(err)
	}
	svc := NewService(store)

	r := svc.WritePR(ctx, "p", inputs.PR{Number: 1}, metadata.NewHistoryEntry(nil, "s", "u", "a"))
	if !r.IsErr() {
		t.Error("corrupt history should be Err")
	}
}

func TestBuildOutput(t *testing.T) {
	current := metadata.NewHistoryEntry(nil, "c", "u", "a")
	base := metadata.NewHistoryEntry(nil, "b", "u", "a")
	update := Update{PreImage: []metadata.HistoryEntry{}, AfterImage: []metadata.HistoryEntry{current}}

	out := BuildOutput(current, update, result.Some(base))
	if got := out.Base.Unwrap(); !reflect.DeepEqual(got, base) {
		t.Errorf("Base: got %+v", got)
	}
	if len(out.AfterImage.Unwrap()) != 1 {
		t.Errorf("AfterImage: got %v", out.AfterImage)
	}

	out = BuildOutput(current, update, result.None[metadata.HistoryEntry]())
	if out.Base.IsSome() {
		t.Error("Base should be None")
	}
}
