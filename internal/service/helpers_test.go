package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/codeman/internal/filestore"
	"github.com/xxxsen/codeman/internal/model"
	"github.com/xxxsen/codeman/internal/repo"
)

var errInjected = errors.New("injected failure")

// faultyStore wraps a real store and fails selected operations on demand.
type faultyStore struct {
	filestore.Store
	mu         sync.Mutex
	failPut    bool
	failDelete bool
	deleted    []string
}

func (f *faultyStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	fail := f.failPut
	f.mu.Unlock()
	if fail {
		return "", errInjected
	}
	return f.Store.Put(ctx, key, r, size, contentType)
}

func (f *faultyStore) Delete(ctx context.Context, keyOrURL string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, keyOrURL)
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return errInjected
	}
	return f.Store.Delete(ctx, keyOrURL)
}

func (f *faultyStore) deletedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out
}

// faultyRepo wraps the in-memory repository and fails writes on demand.
type faultyRepo struct {
	*repo.MemoryTemplateRepo
	failCreate bool
	failUpdate bool
	vanish     bool
}

func (f *faultyRepo) Create(ctx context.Context, tpl *model.Template) error {
	if f.failCreate {
		return errInjected
	}
	return f.MemoryTemplateRepo.Create(ctx, tpl)
}

func (f *faultyRepo) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	if f.failUpdate {
		return nil, errInjected
	}
	if f.vanish {
		_ = f.MemoryTemplateRepo.Delete(ctx, id)
	}
	return f.MemoryTemplateRepo.Update(ctx, id, patch)
}

type recordingEvictor struct {
	urls []string
}

func (r *recordingEvictor) Evict(url string) {
	r.urls = append(r.urls, url)
}

type fixture struct {
	repo    *faultyRepo
	store   *faultyStore
	evictor *recordingEvictor
	svc     *TemplateService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &faultyStore{Store: filestore.NewLocalStore(t.TempDir(), "http://blobs.test/files")}
	r := &faultyRepo{MemoryTemplateRepo: repo.NewMemoryTemplateRepo()}
	ev := &recordingEvictor{}
	return &fixture{repo: r, store: store, evictor: ev, svc: NewTemplateService(r, store, ev)}
}

func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()
	items, err := f.store.List(context.Background())
	require.NoError(t, err)
	return len(items)
}

func (f *fixture) readBlob(t *testing.T, url string) string {
	t.Helper()
	key := filestore.ResolveKey(url, "http://blobs.test/files")
	rc, err := f.store.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func validInput() TemplateInput {
	return TemplateInput{
		Title:       "Hello World",
		Description: "greets",
		Tags:        "demo.python",
		Code:        "def f(): pass",
	}
}
