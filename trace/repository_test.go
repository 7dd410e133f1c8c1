package trace_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon/trace"
)

func newTestTrace(id string, now time.Time) *trace.Trace {
	return &trace.Trace{
		TraceID:  id,
		Question: "what is 3 times 7?",
		RootSpan: &trace.Span{
			SpanID:    "root",
			Kind:      trace.SpanKindRun,
			Name:      "run",
			StartedAt: now,
			EndedAt:   now.Add(time.Second),
			Duration:  time.Second,
			Status:    trace.SpanStatusOK,
		},
		Metadata: trace.TraceMetadata{
			Provider: "ollama",
			Model:    "test-model",
		},
		StartedAt: now,
		EndedAt:   now.Add(time.Second),
	}
}

func TestFileRepositorySave(t *testing.T) {
	dir := t.TempDir()
	repo := trace.NewFileRepository(dir)

	gt.NoError(t, repo.Save(context.Background(), newTestTrace("test-file-repo", time.Now())))

	data, err := os.ReadFile(filepath.Join(dir, "test-file-repo.json"))
	gt.NoError(t, err)

	var loaded trace.Trace
	gt.NoError(t, json.Unmarshal(data, &loaded))

	gt.Equal(t, loaded.TraceID, "test-file-repo")
	gt.Equal(t, loaded.Question, "what is 3 times 7?")
	gt.Equal(t, loaded.RootSpan.Kind, trace.SpanKindRun)
	gt.Equal(t, loaded.Metadata.Model, "test-model")
}

func TestFileRepositoryCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "dir")
	repo := trace.NewFileRepository(dir)

	gt.NoError(t, repo.Save(context.Background(), newTestTrace("test-nested-dir", time.Now())))

	_, err := os.Stat(filepath.Join(dir, "test-nested-dir.json"))
	gt.NoError(t, err)
}

func TestFileRepositoryWithChildren(t *testing.T) {
	dir := t.TempDir()
	repo := trace.NewFileRepository(dir)

	now := time.Now()
	tr := newTestTrace("test-with-children", now)
	tr.RootSpan.Run = &trace.RunData{Answer: "21", Iterations: 2, Completed: true}
	tr.RootSpan.Children = []*trace.Span{
		{
			SpanID:   "llm-1",
			ParentID: "root",
			Kind:     trace.SpanKindLLMCall,
			Name:     "llm_call",
			Status:   trace.SpanStatusOK,
			LLMCall: &trace.LLMCallData{
				InputTokens:  200,
				OutputTokens: 20,
				Model:        "test-model",
				Prompt:       "Question: what is 3 times 7?\nThought:",
				Stop:         []string{"\nObservation:"},
				Completion:   " I need math.\nAction: Calculator\nAction Input: 3*7",
			},
		},
		{
			SpanID:   "tool-1",
			ParentID: "root",
			Kind:     trace.SpanKindToolExec,
			Name:     "Calculator",
			Status:   trace.SpanStatusOK,
			ToolExec: &trace.ToolExecData{
				ToolName: "Calculator",
				Input:    "3*7",
				Result:   "21",
			},
		},
	}

	gt.NoError(t, repo.Save(context.Background(), tr))

	data, err := os.ReadFile(filepath.Join(dir, "test-with-children.json"))
	gt.NoError(t, err)

	var loaded trace.Trace
	gt.NoError(t, json.Unmarshal(data, &loaded))

	gt.A(t, loaded.RootSpan.Children).Length(2)
	gt.Equal(t, loaded.RootSpan.Run.Answer, "21")
	gt.Equal(t, loaded.RootSpan.Children[0].LLMCall.InputTokens, 200)
	gt.Equal(t, loaded.RootSpan.Children[0].LLMCall.Stop, []string{"\nObservation:"})
	gt.Equal(t, loaded.RootSpan.Children[1].ToolExec.Result, "21")
}

func TestFileRepositoryListAndGet(t *testing.T) {
	dir := t.TempDir()
	repo := trace.NewFileRepository(dir)
	ctx := context.Background()

	now := time.Now()
	ids := []string{"trace-old", "trace-mid", "trace-new"}
	for i, id := range ids {
		gt.NoError(t, repo.Save(ctx, newTestTrace(id, now)))
		mtime := now.Add(time.Duration(i-len(ids)) * time.Minute)
		gt.NoError(t, os.Chtimes(filepath.Join(dir, id+".json"), mtime, mtime))
	}
	// Files that are not traces are ignored.
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))
	gt.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0750))

	t.Run("newest first", func(t *testing.T) {
		list, err := repo.List(ctx, 0)
		gt.NoError(t, err)
		gt.A(t, list).Length(3)
		gt.Equal(t, list[0].TraceID, "trace-new")
		gt.Equal(t, list[1].TraceID, "trace-mid")
		gt.Equal(t, list[2].TraceID, "trace-old")
		gt.True(t, list[0].Size > 0)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := repo.List(ctx, 2)
		gt.NoError(t, err)
		gt.A(t, list).Length(2)
		gt.Equal(t, list[0].TraceID, "trace-new")
	})

	t.Run("get round trip", func(t *testing.T) {
		for _, s := range mustList(t, repo) {
			loaded, err := repo.Get(ctx, s.TraceID)
			gt.NoError(t, err)
			gt.Equal(t, loaded.TraceID, s.TraceID)
			gt.Equal(t, loaded.Question, "what is 3 times 7?")
			gt.Equal(t, loaded.RootSpan.Kind, trace.SpanKindRun)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.Get(ctx, "trace-missing")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, trace.ErrTraceNotFound))
	})

	t.Run("rejects path escape", func(t *testing.T) {
		_, err := repo.Get(ctx, "../trace-new")
		gt.Error(t, err)
		gt.False(t, errors.Is(err, trace.ErrTraceNotFound))

		_, err = repo.Get(ctx, "")
		gt.Error(t, err)
	})
}

func TestFileRepositoryListMissingDirectory(t *testing.T) {
	repo := trace.NewFileRepository(filepath.Join(t.TempDir(), "never-written"))

	list, err := repo.List(context.Background(), 10)
	gt.NoError(t, err)
	gt.A(t, list).Length(0)
}

func TestFileRepositorySaveRejectsInvalidID(t *testing.T) {
	dir := t.TempDir()
	repo := trace.NewFileRepository(dir)

	gt.Error(t, repo.Save(context.Background(), newTestTrace("../escape", time.Now())))
	gt.Error(t, repo.Save(context.Background(), newTestTrace("", time.Now())))

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err)
	gt.A(t, entries).Length(0)
}

func mustList(t *testing.T, repo *trace.FileRepository) []trace.Summary {
	t.Helper()
	list, err := repo.List(context.Background(), 0)
	gt.NoError(t, err)
	return list
}
