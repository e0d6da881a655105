// Package store implements the content-addressed blob tree: filename
// cleaning, spool-file naming, path building and the streaming
// write-hash-rename sequence.
package store

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// TmpBucket is the bucket key for spool files written before the content
// fingerprint is known.
const TmpBucket = "tmp"

// Store manages the blob tree rooted at dataDir.
// Layout: <dataDir>/<YYYYMM>/<sha1-or-tmp>/<cleanName>.
type Store struct {
	dataDir string
}

// New creates a Store and ensures the data directory exists. The directory is
// resolved to an absolute path so stored record paths stay valid if the
// process later changes its working directory.
func New(dataDir string) (*Store, error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", dataDir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", abs, err)
	}
	return &Store{dataDir: abs}, nil
}

// DataDir returns the root of the blob tree.
func (s *Store) DataDir() string {
	return s.dataDir
}

// NewSpoolID returns 32 lowercase hex characters from a 128-bit random value.
// Spool files are named by it so concurrent uploads never collide before
// their fingerprint is known.
func NewSpoolID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// BuildPath returns the path for name under bucketKey in the current month's
// directory, creating the directory if needed. The month is wall-clock time
// at call time, not anything derived from the content. Creating an existing
// directory succeeds, so concurrent callers cannot race.
func (s *Store) BuildPath(bucketKey, name string) (string, error) {
	dir := filepath.Join(s.dataDir, time.Now().Format("200601"), bucketKey)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return filepath.Join(dir, name), nil
}

// Spool streams r to a freshly named temp file while feeding a SHA-1
// accumulator and byte counter, in bounded memory regardless of stream size.
// A spool file left behind by a failed upload is not removed.
func (s *Store) Spool(r io.Reader) (sum string, size int64, tmpPath string, err error) {
	tmpPath, err = s.BuildPath(TmpBucket, NewSpoolID())
	if err != nil {
		return "", 0, "", err
	}

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", 0, "", fmt.Errorf("failed to create spool file: %w", err)
	}

	hasher := sha1.New()
	size, err = io.Copy(io.MultiWriter(f, hasher), r)
	if err != nil {
		f.Close()
		return "", 0, tmpPath, fmt.Errorf("failed to spool upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", 0, tmpPath, fmt.Errorf("failed to close spool file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), size, tmpPath, nil
}

// Promote moves a spool file to its final content-addressed path and returns
// it. The rename is atomic on a single filesystem; when two uploads of
// identical content race, the last rename wins and both end up with the same
// bytes.
func (s *Store) Promote(tmpPath, sum, cleanName string) (string, error) {
	finalPath, err := s.BuildPath(sum, cleanName)
	if err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to promote spool file: %w", err)
	}
	return finalPath, nil
}
