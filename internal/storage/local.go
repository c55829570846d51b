// Package storage persists run artifacts and workflow history. The local
// filesystem is the authoritative store; S3 mirroring is optional.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/cloo-solutions/sophia/internal/telemetry"
)

// ArtifactStore writes task outputs to a local directory with automatic
// revision numbering: the first save of a task on a given day is rev0, the
// next rev1, and so on. Existing files are never overwritten.
type ArtifactStore struct {
	dir    string
	mirror ArtifactMirror
	now    func() time.Time
}

// ArtifactMirror receives a copy of every saved artifact. Mirror failures
// are reported but must not fail the save.
type ArtifactMirror interface {
	PutArtifact(ctx context.Context, key, ext string, content []byte) error
}

// NewArtifactStore creates an ArtifactStore rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir, now: time.Now}
}

// WithMirror enables mirroring of saved artifacts.
func (s *ArtifactStore) WithMirror(mirror ArtifactMirror) *ArtifactStore {
	s.mirror = mirror
	return s
}

// sanitizeName keeps artifact filenames portable.
func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "task"
	}
	return b.String()
}

// Save writes content for a task and returns the file path. The filename is
// {date}-{task name}-rev{N}.{ext} where N is the smallest unused revision.
func (s *ArtifactStore) Save(ctx context.Context, task domain.Task, content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create outputs directory: %w", err)
	}

	dateStr := s.now().Format("2006-01-02")
	ext := task.OutputFormat.FileExt()
	name := sanitizeName(task.Name)

	var path string
	for version := 0; ; version++ {
		filename := fmt.Sprintf("%s-%s-rev%d.%s", dateStr, name, version, ext)
		path = filepath.Join(s.dir, filename)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}

	if s.mirror != nil {
		if err := s.mirror.PutArtifact(ctx, filepath.Base(path), ext, []byte(content)); err != nil {
			// The local file is authoritative; a mirror problem never undoes
			// a completed save.
			log.Printf("storage: mirror upload failed for %s: %v", filepath.Base(path), err)
			telemetry.CaptureError(ctx, err)
		}
	}
	return path, nil
}

// HistoryStore persists one JSON record per completed run.
type HistoryStore struct {
	dir string
}

// NewHistoryStore creates a HistoryStore rooted at dir.
func NewHistoryStore(dir string) *HistoryStore {
	return &HistoryStore{dir: dir}
}

// SaveRun writes the history record and returns its file path.
func (s *HistoryStore) SaveRun(record *domain.RunRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create history directory: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("workflow_%s.json", record.Timestamp))

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run record: %w", err)
	}
	return path, nil
}

// ListRuns returns summaries of all persisted runs, newest first. Files that
// fail to parse are skipped rather than failing the listing.
func (s *HistoryStore) ListRuns() ([]domain.RunSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return []domain.RunSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	summaries := make([]domain.RunSummary, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		var record domain.RunRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		summaries = append(summaries, domain.RunSummary{
			Filename:     name,
			WorkflowName: record.WorkflowName,
			Timestamp:    record.Timestamp,
			NumTasks:     record.NumTasks,
		})
	}
	return summaries, nil
}

// GetRun loads one persisted run record by filename.
func (s *HistoryStore) GetRun(filename string) (*domain.RunRecord, error) {
	// Reject traversal; history filenames are flat.
	if filepath.Base(filename) != filename {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "invalid history filename")
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if os.IsNotExist(err) {
		return nil, domain.NewDomainError(domain.ErrCodeNotFound, "run record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}
	var record domain.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode run record: %w", err)
	}
	return &record, nil
}
