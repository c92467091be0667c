package service

import (
	"context"
	"github.com/rs/zerolog"
	"path/filepath"
	"scene-worker/constant"
)

type ReconcileOutcome string

const (
	ReconcileSkippedMissing ReconcileOutcome = "skipped-missing-source"
	ReconcileIncomplete     ReconcileOutcome = "incomplete"
	ReconcileArchived       ReconcileOutcome = "archived"
	ReconcileReduced        ReconcileOutcome = "reduced"
	ReconcileRejected       ReconcileOutcome = "rejected"
)

type Reconciler struct {
	store    *SceneStore
	archiver Archiver
}

func NewReconciler(store *SceneStore, archiver Archiver) *Reconciler {
	return &Reconciler{store: store, archiver: archiver}
}

// Reconcile archives the source once it has exactly as many split outputs as
// its record has entries; an incomplete split leaves it in place.
func (r *Reconciler) Reconcile(ctx context.Context, folder Folder, recordPath, sourcePath string) (ReconcileOutcome, error) {
	ext := filepath.Ext(sourcePath)
	base := stem(sourcePath)
	log := zerolog.Ctx(ctx).With().Str("folder", folder.Name).Str("video", base+ext).Logger()

	record, err := r.store.Load(recordPath)
	if err != nil {
		return "", err
	}
	snap, err := Inspect(folder, base, ext, r.store)
	if err != nil {
		return "", err
	}
	if !snap.SourceExists {
		return ReconcileSkippedMissing, nil
	}

	state := snap.State(len(record))
	log = log.With().Int("scenes", len(record)).Int("outputs", len(snap.Outputs)).Str("state", string(state)).Logger()
	if state != constant.VideoStateFullySplit || len(snap.Outputs) != len(record) {
		log.Info().Msg("split incomplete, keeping source")
		return ReconcileIncomplete, nil
	}

	next, err := r.archiver.Archive(log.WithContext(ctx), snap)
	if err != nil {
		return "", err
	}
	if next == constant.VideoStateDetected {
		return ReconcileRejected, nil
	}
	log.Info().Str("state", string(next)).Msg("source archived")
	if next == constant.VideoStateReduced {
		return ReconcileReduced, nil
	}
	return ReconcileArchived, nil
}
