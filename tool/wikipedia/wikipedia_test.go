package wikipedia_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reckon/tool/wikipedia"
)

type fakeWiki struct {
	mu      sync.Mutex
	pages   map[string]string
	hits    []string
	status  int
	broken  map[string]bool
	queries []string
	agents  []string
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	f.agents = append(f.agents, r.Header.Get("User-Agent"))

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte("upstream down"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case q.Get("list") == "search":
		f.queries = append(f.queries, q.Get("srsearch"))
		var results []map[string]any
		for _, title := range f.hits {
			results = append(results, map[string]any{"ns": 0, "title": title})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{"search": results},
		})

	case q.Get("prop") == "extracts":
		title := q.Get("titles")
		if f.broken[title] {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("page render failed"))
			return
		}
		page := map[string]any{"title": title}
		if extract, ok := f.pages[title]; ok {
			page["extract"] = extract
		} else {
			page["missing"] = true
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"query": map[string]any{"pages": []any{page}},
		})

	default:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": "badparams", "info": "unknown request"},
		})
	}
}

func TestSpec(t *testing.T) {
	spec := wikipedia.New().Spec()
	gt.Equal(t, spec.Name, "Wikipedia")
	gt.Equal(t, spec.Description, "A useful tool for searching the internet to find information on various topics.")
	gt.NoError(t, spec.Validate())
}

func TestRun(t *testing.T) {
	fake := &fakeWiki{
		hits: []string{"Tokyo", "Tokyo Tower", "Tokyo Bay", "Tokyo Station"},
		pages: map[string]string{
			"Tokyo":       "Tokyo is the capital of Japan.",
			"Tokyo Tower": "Tokyo Tower is a communications tower.",
			"Tokyo Bay":   "Tokyo Bay is a bay in the southern Kantō region.",
		},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	tool := wikipedia.New(wikipedia.WithBaseURL(srv.URL), wikipedia.WithUserAgent("test-agent"))

	out, err := tool.Run(context.Background(), "  capital of Japan \n")
	gt.NoError(t, err)
	gt.Equal(t, out, "Page: Tokyo\nSummary: Tokyo is the capital of Japan.\n\n"+
		"Page: Tokyo Tower\nSummary: Tokyo Tower is a communications tower.\n\n"+
		"Page: Tokyo Bay\nSummary: Tokyo Bay is a bay in the southern Kantō region.")

	gt.Equal(t, fake.queries, []string{"capital of Japan"})
	for _, ua := range fake.agents {
		gt.Equal(t, ua, "test-agent")
	}
}

func TestRunSkipsMissingPages(t *testing.T) {
	fake := &fakeWiki{
		hits:  []string{"Ghost", "Real"},
		pages: map[string]string{"Real": "A real page."},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL)).Run(context.Background(), "query")
	gt.NoError(t, err)
	gt.Equal(t, out, "Page: Real\nSummary: A real page.")
}

func TestRunSkipsFailingPages(t *testing.T) {
	fake := &fakeWiki{
		hits: []string{"Tokyo", "Tokyo Tower", "Tokyo Bay"},
		pages: map[string]string{
			"Tokyo":       "Tokyo is the capital of Japan.",
			"Tokyo Tower": "Tokyo Tower is a communications tower.",
			"Tokyo Bay":   "Tokyo Bay is a bay in the southern Kantō region.",
		},
		broken: map[string]bool{"Tokyo Tower": true},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL)).Run(context.Background(), "Tokyo")
	gt.NoError(t, err)
	gt.Equal(t, out, "Page: Tokyo\nSummary: Tokyo is the capital of Japan.\n\n"+
		"Page: Tokyo Bay\nSummary: Tokyo Bay is a bay in the southern Kantō region.")
}

func TestRunAllPagesFail(t *testing.T) {
	fake := &fakeWiki{
		hits:   []string{"Tokyo", "Tokyo Tower"},
		pages:  map[string]string{"Tokyo": "x", "Tokyo Tower": "y"},
		broken: map[string]bool{"Tokyo": true, "Tokyo Tower": true},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL)).Run(context.Background(), "Tokyo")
	gt.Error(t, err)
	gt.Equal(t, out, "")
}

func TestRunNoResult(t *testing.T) {
	srv := httptest.NewServer(&fakeWiki{})
	defer srv.Close()
	tool := wikipedia.New(wikipedia.WithBaseURL(srv.URL))

	t.Run("no hits", func(t *testing.T) {
		out, err := tool.Run(context.Background(), "zzzzqqqq")
		gt.NoError(t, err)
		gt.Equal(t, out, wikipedia.NoResult)
	})

	t.Run("empty input", func(t *testing.T) {
		out, err := tool.Run(context.Background(), "   ")
		gt.NoError(t, err)
		gt.Equal(t, out, wikipedia.NoResult)
	})
}

func TestRunTruncates(t *testing.T) {
	fake := &fakeWiki{
		hits:  []string{"Long"},
		pages: map[string]string{"Long": strings.Repeat("あ", 100)},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := wikipedia.New(
		wikipedia.WithBaseURL(srv.URL),
		wikipedia.WithMaxChars(30),
	).Run(context.Background(), "long")
	gt.NoError(t, err)
	gt.Equal(t, len([]rune(out)), 30)
	gt.S(t, out).Contains("Page: Long")
}

func TestRunLongQuery(t *testing.T) {
	fake := &fakeWiki{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL)).Run(context.Background(), strings.Repeat("a", 500))
	gt.NoError(t, err)
	gt.Equal(t, len(fake.queries[0]), 300)
}

func TestRunTopK(t *testing.T) {
	fake := &fakeWiki{
		hits:  []string{"A", "B", "C"},
		pages: map[string]string{"A": "a", "B": "b", "C": "c"},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	out, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL), wikipedia.WithTopK(1)).Run(context.Background(), "x")
	gt.NoError(t, err)
	gt.Equal(t, out, "Page: A\nSummary: a")
}

func TestRunBackendFailure(t *testing.T) {
	srv := httptest.NewServer(&fakeWiki{status: http.StatusServiceUnavailable})
	defer srv.Close()

	out, err := wikipedia.New(wikipedia.WithBaseURL(srv.URL)).Run(context.Background(), "Tokyo")
	gt.Error(t, err)
	gt.Equal(t, out, "")
}
