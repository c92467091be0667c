package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"os"
	"path"
	"path/filepath"
	"scene-worker/config"
	"scene-worker/constant"
	"scene-worker/pkg/fsx"
)

// Archiver removes a fully split source from its folder and reports the
// resulting state. An archiver may refuse the split and return
// VideoStateDetected, leaving the source in place.
type Archiver interface {
	Archive(ctx context.Context, snap Snapshot) (constant.VideoState, error)
}

// QuarantineArchiver moves sources to <Root>/<folder>/<file>.
type QuarantineArchiver struct {
	Root string
}

func (a *QuarantineArchiver) Archive(ctx context.Context, snap Snapshot) (constant.VideoState, error) {
	dst := filepath.Join(a.Root, snap.Folder.Name, filepath.Base(snap.Source))
	if err := fsx.Move(snap.Source, dst); err != nil {
		return "", fmt.Errorf("quarantine %s: %w", snap.Source, err)
	}
	zerolog.Ctx(ctx).Info().Str("destination", dst).Msg("source quarantined")
	return constant.VideoStateArchived, nil
}

// DeleteArchiver deletes the source once every split output is at least
// MinSplitBytes. An undersized output rejects the split instead: all outputs
// of the source are removed and the source stays to be split again.
type DeleteArchiver struct {
	MinSplitBytes int64
}

func (a *DeleteArchiver) Archive(ctx context.Context, snap Snapshot) (constant.VideoState, error) {
	log := zerolog.Ctx(ctx)
	undersized := 0
	for _, o := range snap.Outputs {
		if o.Size < a.MinSplitBytes {
			log.Warn().Str("output", o.Name).Int64("bytes", o.Size).Int64("min_bytes", a.MinSplitBytes).Msg("undersized output")
			undersized++
		}
	}
	if undersized > 0 {
		for _, o := range snap.Outputs {
			if err := os.Remove(filepath.Join(snap.Folder.Path, o.Name)); err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("remove output %s: %w", o.Name, err)
			}
		}
		log.Info().Int("undersized", undersized).Int("removed", len(snap.Outputs)).Msg("split rejected, keeping source")
		return constant.VideoStateDetected, nil
	}
	if err := os.Remove(snap.Source); err != nil {
		return "", fmt.Errorf("remove %s: %w", snap.Source, err)
	}
	log.Info().Msg("source deleted")
	return constant.VideoStateReduced, nil
}

type ObjectUploader interface {
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// BucketArchiver uploads sources to <Bucket>/<folder>/<file> and removes the
// local copy once the upload succeeded.
type BucketArchiver struct {
	Client ObjectUploader
	Bucket string
}

func (a *BucketArchiver) Archive(ctx context.Context, snap Snapshot) (constant.VideoState, error) {
	object := path.Join(snap.Folder.Name, filepath.Base(snap.Source))
	info, err := a.Client.FPutObject(ctx, a.Bucket, object, snap.Source, minio.PutObjectOptions{ContentType: "video/mp4"})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", snap.Source, err)
	}
	if err := os.Remove(snap.Source); err != nil {
		return "", fmt.Errorf("remove %s after upload: %w", snap.Source, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", a.Bucket).Str("object", object).Int64("bytes", info.Size).Msg("source uploaded")
	return constant.VideoStateArchived, nil
}

func NewArchiver(cfg *config.Config) (Archiver, error) {
	switch cfg.Archive.Policy {
	case constant.ArchivePolicyQuarantine:
		return &QuarantineArchiver{Root: cfg.Paths.QuarantineRoot}, nil
	case constant.ArchivePolicyDelete:
		return &DeleteArchiver{MinSplitBytes: cfg.Archive.MinSplitBytes}, nil
	case constant.ArchivePolicyBucket:
		if cfg.Storage == nil {
			return nil, fmt.Errorf("archive policy %s requires object storage", cfg.Archive.Policy)
		}
		return &BucketArchiver{Client: cfg.Storage, Bucket: cfg.MinIOBucket}, nil
	}
	return nil, fmt.Errorf("unknown archive policy %q", cfg.Archive.Policy)
}
