package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/codeman/internal/model"
	appErr "github.com/xxxsen/codeman/internal/pkg/errors"
)

type memoryEntry struct {
	tpl model.Template
	seq int64
}

// MemoryTemplateRepo keeps templates in process memory. Used by tests and single-node demos.
type MemoryTemplateRepo struct {
	mu    sync.RWMutex
	items map[string]*memoryEntry
	seq   int64
	now   func() time.Time
}

func NewMemoryTemplateRepo() *MemoryTemplateRepo {
	return &MemoryTemplateRepo{items: make(map[string]*memoryEntry), now: time.Now}
}

func (r *MemoryTemplateRepo) Create(ctx context.Context, tpl *model.Template) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	tpl.ID = newID()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	r.seq++
	stored := *tpl
	stored.Tags = cloneTags(tpl.Tags)
	r.items[tpl.ID] = &memoryEntry{tpl: stored, seq: r.seq}
	return nil
}

func (r *MemoryTemplateRepo) GetByID(ctx context.Context, id string) (*model.Template, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.items[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	out := entry.tpl
	out.Tags = cloneTags(entry.tpl.Tags)
	return &out, nil
}

func (r *MemoryTemplateRepo) List(ctx context.Context) ([]model.Template, error) {
	_ = ctx
	r.mu.RLock()
	entries := make([]*memoryEntry, 0, len(r.items))
	for _, entry := range r.items {
		entries = append(entries, entry)
	}
	r.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].tpl.CreatedAt.Equal(entries[j].tpl.CreatedAt) {
			return entries[i].tpl.CreatedAt.After(entries[j].tpl.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	items := make([]model.Template, 0, len(entries))
	for _, entry := range entries {
		tpl := entry.tpl
		tpl.Tags = cloneTags(entry.tpl.Tags)
		items = append(items, tpl)
	}
	return items, nil
}

func (r *MemoryTemplateRepo) Update(ctx context.Context, id string, patch model.TemplatePatch) (*model.Template, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.items[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	entry.tpl.Title = patch.Title
	entry.tpl.Description = patch.Description
	entry.tpl.Tags = cloneTags(patch.Tags)
	if patch.CodeURL != "" {
		entry.tpl.CodeURL = patch.CodeURL
		entry.tpl.Language = patch.Language
	}
	entry.tpl.UpdatedAt = r.now()
	out := entry.tpl
	out.Tags = cloneTags(entry.tpl.Tags)
	return &out, nil
}

func (r *MemoryTemplateRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return appErr.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryTemplateRepo) ListCodeURLs(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	urls := make([]string, 0, len(r.items))
	for _, entry := range r.items {
		urls = append(urls, entry.tpl.CodeURL)
	}
	return urls, nil
}
