// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const fileSuffix = ".gob.gz"

// FileStore keeps artifacts as files in a directory.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex

	// versions tracks every stored version per artifact name.
	versions map[string][]int
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store at baseDir, creating the directory if needed
// and indexing existing artifact files.
func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &FileStore{
		baseDir:  baseDir,
		versions: make(map[string][]int),
	}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}
	return s, nil
}

// scan indexes the artifact files in baseDir.
func (s *FileStore) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, version, ok := parseFilename(entry.Name())
		if !ok {
			continue
		}
		s.versions[name] = insertVersion(s.versions[name], version)
	}
	return nil
}

// parseFilename splits "bundle_v12.gob.gz" into ("bundle", 12).
func parseFilename(filename string) (string, int, bool) {
	base, ok := strings.CutSuffix(filename, fileSuffix)
	if !ok {
		return "", 0, false
	}
	idx := strings.LastIndex(base, "_v")
	if idx <= 0 {
		return "", 0, false
	}
	version, err := strconv.Atoi(base[idx+2:])
	if err != nil || version < 1 {
		return "", 0, false
	}
	return base[:idx], version, true
}

// insertVersion adds v to the ascending slice if absent.
func insertVersion(versions []int, v int) []int {
	i := sort.SearchInts(versions, v)
	if i < len(versions) && versions[i] == v {
		return versions
	}
	versions = append(versions, 0)
	copy(versions[i+1:], versions[i:])
	versions[i] = v
	return versions
}

// Save writes the artifact atomically via a temporary file and rename.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *FileStore) Save(ctx context.Context, name string, version int, data any, meta Metadata) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := encode(name, version, data, meta)
	if err != nil {
		return nil, err
	}
	payload, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, ".artifact-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() //nolint:errcheck // no-op after successful rename

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		return nil, fmt.Errorf("write artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(name, version)); err != nil {
		return nil, fmt.Errorf("rename artifact file: %w", err)
	}

	s.versions[name] = insertVersion(s.versions[name], version)
	return &rec.Metadata, nil
}

// Load reads and verifies an artifact. Version 0 loads the latest.
func (s *FileStore) Load(ctx context.Context, name string, version int, target any) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		versions := s.versions[name]
		if len(versions) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = versions[len(versions)-1]
	}

	rec, err := s.readRecord(name, version)
	if err != nil {
		return nil, err
	}
	if err := decode(rec, target); err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

func (s *FileStore) readRecord(name string, version int) (*record, error) {
	data, err := os.ReadFile(s.path(name, version))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact file: %w", err)
	}
	return unmarshalRecord(data)
}

// LatestVersion returns the highest stored version of name.
func (s *FileStore) LatestVersion(_ context.Context, name string) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.versions[name]
	if len(versions) == 0 {
		return 0, false, nil
	}
	return versions[len(versions)-1], true, nil
}

// List returns metadata for the latest version of every artifact, sorted by
// name. Unreadable files are skipped.
func (s *FileStore) List(ctx context.Context) ([]Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Metadata
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		versions := s.versions[name]
		rec, err := s.readRecord(name, versions[len(versions)-1])
		if err != nil {
			continue
		}
		out = append(out, rec.Metadata)
	}
	return out, nil
}

// Prune removes all but the newest keep versions of name. keep < 1 is
// treated as 1.
func (s *FileStore) Prune(_ context.Context, name string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 1 {
		keep = 1
	}
	versions := s.versions[name]
	if len(versions) <= keep {
		return nil
	}

	cut := len(versions) - keep
	var errs []error
	for _, v := range versions[:cut] {
		if err := os.Remove(s.path(name, v)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.versions[name] = append([]int(nil), versions[cut:]...)
	return errors.Join(errs...)
}

// Close is a no-op for FileStore.
func (s *FileStore) Close() error { return nil }

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.baseDir }

func (s *FileStore) path(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d%s", name, version, fileSuffix))
}
