package trace

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ErrTraceNotFound is returned by Get when no trace is stored under the ID.
var ErrTraceNotFound = errors.New("trace not found")

// Repository persists finished traces. Recorder only needs Save.
type Repository interface {
	Save(ctx context.Context, trace *Trace) error
}

// Reader browses traces written by a Repository.
type Reader interface {
	List(ctx context.Context, limit int) ([]Summary, error)
	Get(ctx context.Context, traceID string) (*Trace, error)
}

// Summary describes one stored trace without loading it.
type Summary struct {
	TraceID   string    `json:"trace_id"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileRepository keeps one JSON file per run under dir, named {trace_id}.json.
type FileRepository struct {
	dir string
}

var (
	_ Repository = (*FileRepository)(nil)
	_ Reader     = (*FileRepository)(nil)
)

// NewFileRepository creates a FileRepository rooted at dir. The directory is created on first Save.
func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

func (r *FileRepository) path(traceID string) (string, error) {
	if traceID == "" || traceID != filepath.Base(traceID) || strings.HasPrefix(traceID, ".") {
		return "", goerr.New("invalid trace ID", goerr.V("trace_id", traceID))
	}
	return filepath.Join(r.dir, traceID+".json"), nil
}

func (r *FileRepository) Save(_ context.Context, trace *Trace) error {
	filePath, err := r.path(trace.TraceID)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0750); err != nil {
		return goerr.Wrap(err, "failed to create trace directory", goerr.V("dir", r.dir))
	}

	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to marshal trace", goerr.V("trace_id", trace.TraceID))
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write trace file", goerr.V("path", filePath))
	}

	return nil
}

// List returns up to limit summaries, most recently written first. A directory that
// does not exist yet holds no traces. limit <= 0 returns everything.
func (r *FileRepository) List(_ context.Context, limit int) ([]Summary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, goerr.Wrap(err, "failed to read trace directory", goerr.V("dir", r.dir))
	}

	summaries := []Summary{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			TraceID:   strings.TrimSuffix(e.Name(), ".json"),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}

	// Ties on mtime are broken by ID so the order is stable.
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UpdatedAt.Equal(summaries[j].UpdatedAt) {
			return summaries[i].TraceID > summaries[j].TraceID
		}
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}

	return summaries, nil
}

// Get loads one trace. A missing file yields an error matching ErrTraceNotFound.
func (r *FileRepository) Get(_ context.Context, traceID string) (*Trace, error) {
	filePath, err := r.path(traceID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrTraceNotFound, "failed to get trace", goerr.V("trace_id", traceID))
		}
		return nil, goerr.Wrap(err, "failed to read trace file", goerr.V("trace_id", traceID))
	}

	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, goerr.Wrap(err, "failed to parse trace file", goerr.V("trace_id", traceID))
	}

	return &t, nil
}
