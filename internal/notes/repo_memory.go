package notes

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory notes repository for tests.
type MemoryRepo struct {
	mu    sync.Mutex
	Notes []OperatorNote

	// AppendErr and ListErr force failures for fail-open tests.
	AppendErr error
	ListErr   error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Append(ctx context.Context, n OperatorNote) error {
	if r.AppendErr != nil {
		return r.AppendErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notes = append(r.Notes, n)
	return nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]OperatorNote, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OperatorNote, 0)
	for _, n := range r.Notes {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
