package registry

import (
	"sync"

	"github.com/jwalitptl/edu-content/internal/model"
	apperrors "github.com/jwalitptl/edu-content/pkg/errors"
)

// Registry maps content ids to loaded entries. It is written once during
// load by a single writer and read concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]*model.EducationalContent
	order []*model.EducationalContent
}

func New() *Registry {
	return &Registry{
		byID: make(map[string]*model.EducationalContent),
	}
}

// Register inserts content under its id. A second entry with an existing id
// fails with a duplicate-id error and leaves the registry unchanged.
func (r *Registry) Register(content *model.EducationalContent) error {
	if content == nil {
		return apperrors.NewInvalidArgument("cannot register nil content")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[content.ID]; exists {
		return apperrors.NewDuplicateID(content.ID)
	}
	r.byID[content.ID] = content
	r.order = append(r.order, content)
	return nil
}

// GetAll returns every entry in registration order. The slice is a copy; the
// entries are shared.
func (r *Registry) GetAll() []*model.EducationalContent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.EducationalContent, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) GetByID(id string) (*model.EducationalContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, ok := r.byID[id]
	if !ok {
		return nil, apperrors.NewNotFound("content "+id, nil)
	}
	return content, nil
}

func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	for i, c := range r.order {
		ids[i] = c.ID
	}
	return ids
}
