package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/metrics"
)

type codeURLLister interface {
	ListCodeURLs(ctx context.Context) ([]string, error)
}

// OrphanBlobCleanupJob removes blobs no template references. Blobs younger than the grace
// period are left alone so an upload whose record write is still in flight survives.
type OrphanBlobCleanupJob struct {
	templates codeURLLister
	store     filestore.Store
	grace     time.Duration
	now       func() time.Time
}

func NewOrphanBlobCleanupJob(templates codeURLLister, store filestore.Store, grace time.Duration) *OrphanBlobCleanupJob {
	return &OrphanBlobCleanupJob{templates: templates, store: store, grace: grace, now: time.Now}
}

func (j *OrphanBlobCleanupJob) Name() string {
	return "orphan_blob_cleanup"
}

func (j *OrphanBlobCleanupJob) Run(ctx context.Context) error {
	grace := j.grace
	if grace <= 0 {
		grace = time.Hour
	}
	objects, err := j.store.List(ctx)
	if err != nil {
		return err
	}
	urls, err := j.templates.ListCodeURLs(ctx)
	if err != nil {
		return err
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		referenced[url] = struct{}{}
		referenced[filestore.ResolveKey(url, j.store.URL(""))] = struct{}{}
	}
	cutoff := j.now().Add(-grace)
	logger := logutil.GetLogger(ctx)
	removed := 0
	for _, obj := range objects {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if obj.ModTime.After(cutoff) {
			continue
		}
		if _, ok := referenced[obj.URL]; ok {
			continue
		}
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			logger.Warn("delete orphan blob failed", zap.String("key", obj.Key), zap.Error(err))
			continue
		}
		removed++
		metrics.OrphanBlobsDeleted.Inc()
	}
	logger.Info("orphan blob sweep done", zap.Int("scanned", len(objects)), zap.Int("removed", removed))
	return nil
}
