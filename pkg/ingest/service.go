// Package ingest runs the streaming write-hash-rename sequence and records
// the resulting metadata.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/your-org/fileserver/pkg/index"
	"github.com/your-org/fileserver/pkg/models"
	"github.com/your-org/fileserver/pkg/store"
)

// Service owns the ingest pipeline. The index must be opened before Save is
// called.
type Service struct {
	store  *store.Store
	idx    *index.Index
	logger *slog.Logger
}

// NewService creates the ingest service.
func NewService(st *store.Store, idx *index.Index, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		idx:    idx,
		logger: logger.With(slog.String("component", "ingest")),
	}
}

// Save consumes the upload stream and returns the stored record.
//
// The sequence is strict: spool while hashing, promote the spool file to its
// content-addressed path, then upsert metadata. An error at any step aborts
// before metadata is written. A spool file left behind by a failed upload is
// not cleaned up.
func (s *Service) Save(ctx context.Context, origin, rawFilename string, r io.Reader) (*models.FileRecord, error) {
	name := store.CleanFilename(rawFilename)

	sum, size, tmpPath, err := s.store.Spool(r)
	if err != nil {
		return nil, err
	}

	finalPath, err := s.store.Promote(tmpPath, sum, name)
	if err != nil {
		return nil, err
	}

	// Time reflects ingest completion, captured after the rename.
	rec := &models.FileRecord{
		SHA1: sum,
		URL:  origin + "/download/" + sum,
		Name: name,
		Path: finalPath,
		Size: size,
		Time: time.Now().UnixMilli(),
	}

	if err := s.idx.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		slog.String("sha1", rec.SHA1),
		slog.String("name", rec.Name),
		slog.Int64("size", rec.Size),
	)

	return rec, nil
}
