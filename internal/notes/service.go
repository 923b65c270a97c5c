package notes

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for operator notes.
//
// It MUST be append-only for writes.
// No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, n OperatorNote) error
	ListByUser(ctx context.Context, userID string) ([]OperatorNote, error)
}

// Service records operator annotations on patients.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidNote = errors.New("notes: invalid note")

// Add validates and appends one note, filling id and timestamp.
func (s *Service) Add(ctx context.Context, userID, note, createdBy string, tags []string) (OperatorNote, error) {
	if s.repo == nil {
		return OperatorNote{}, errors.New("notes: repository not configured")
	}
	if userID == "" || note == "" || createdBy == "" {
		return OperatorNote{}, ErrInvalidNote
	}

	n := OperatorNote{
		ID:        uuid.NewString(),
		UserID:    userID,
		Note:      note,
		Tags:      tags,
		CreatedBy: createdBy,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Append(ctx, n); err != nil {
		return OperatorNote{}, err
	}
	return n, nil
}

// ListByUser returns a patient's notes, newest first. Fail-open: repository
// failures degrade to an empty list (the page shows "no notes").
func (s *Service) ListByUser(ctx context.Context, userID string) []OperatorNote {
	if s.repo == nil || userID == "" {
		return []OperatorNote{}
	}
	out, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return []OperatorNote{}
	}
	return out
}
