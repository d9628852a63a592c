package danger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"safewalk/internal/geo"
	"safewalk/internal/types"
)

// FileStore persists hazard reports as a single JSON array on disk,
// optionally gzip-compressed when the path ends in ".gz". Every operation
// is a read-whole/modify/write-whole sequence serialized by an internal
// mutex, which is the store's entire concurrency story: no network call
// ever happens while the mutex is held.
type FileStore struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	now func() time.Time // injected for deterministic tests
}

// NewFileStore creates a FileStore backed by the given path. The file is
// created lazily on first Add/Clear; a missing file reads as empty.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{
		path:   path,
		logger: logger.With("component", "danger_store"),
		now:    time.Now,
	}
}

// Add appends a hazard report and persists the full set. It holds the
// store mutex across the load-append-save sequence so concurrent Adds
// cannot drop each other's records.
func (s *FileStore) Add(_ context.Context, lat, lng float64) (*types.DangerPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.load()

	point := types.DangerPoint{
		ID:        uuid.NewString(),
		Lat:       geo.RoundCoord(lat),
		Lng:       geo.RoundCoord(lng),
		Timestamp: s.now(),
		Label:     types.DangerPointLabel,
	}
	points = append(points, point)

	if err := s.save(points); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalStore, "persisting hazard report failed", err)
	}
	return &point, nil
}

// List returns the current full sequence of hazard reports.
func (s *FileStore) List(_ context.Context) ([]types.DangerPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(), nil
}

// Clear empties the store.
func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save([]types.DangerPoint{}); err != nil {
		return types.NewAppError(types.ErrCodeInternalStore, "clearing hazard store failed", err)
	}
	return nil
}

// Ping implements the health probe check: the store is healthy when its
// directory is writable. A missing data file is a normal empty store.
func (s *FileStore) Ping(_ context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("store parent path is not a directory")
	}
	return nil
}

// load reads the full hazard set. A missing, corrupt, or unreadable file
// is treated as an empty store rather than a fatal error; corruption is
// logged and the caller proceeds with no hazards.
func (s *FileStore) load() []types.DangerPoint {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Error("reading hazard store failed, treating as empty", "path", s.path, "error", err)
		}
		return []types.DangerPoint{}
	}

	if s.compressed() {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			s.logger.Error("hazard store gzip header invalid, treating as empty", "path", s.path, "error", err)
			return []types.DangerPoint{}
		}
		raw, err = io.ReadAll(zr)
		if cerr := zr.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			s.logger.Error("hazard store decompression failed, treating as empty", "path", s.path, "error", err)
			return []types.DangerPoint{}
		}
	}

	var points []types.DangerPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		s.logger.Error("hazard store corrupt, treating as empty", "path", s.path, "error", err)
		return []types.DangerPoint{}
	}
	return points
}

// save writes the full hazard set via a temp file and atomic rename, so a
// crash mid-write never leaves a truncated store behind.
func (s *FileStore) save(points []types.DangerPoint) error {
	raw, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return err
	}

	if s.compressed() {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		if _, err := zw.Write(raw); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		raw = buf.Bytes()
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".danger-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *FileStore) compressed() bool {
	return strings.HasSuffix(s.path, ".gz")
}
