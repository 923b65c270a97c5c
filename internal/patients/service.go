package patients

import (
	"context"
	"errors"
	"sort"
	"time"

	"vivebien-dashboard/internal/store"
)

// Service provides patient roster and detail reads plus the soft-delete
// mutation. Reads fail open: an unreachable or unconfigured database yields
// empty results so pages render a "no data" state.
type Service struct {
	store *store.Store
	clock func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, clock: time.Now}
}

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Roster lists all non-deleted patients, newest first, joined with billing
// and conversation state.
func (s *Service) Roster(ctx context.Context) []RosterRow {
	if !s.store.Enabled() {
		return []RosterRow{}
	}
	rows, err := s.queryRoster(ctx)
	if err != nil {
		s.store.Log().Error("roster query failed", "err", err)
		return []RosterRow{}
	}
	return rows
}

// ByID returns the full detail record for one patient. ok is false when the
// id is unknown.
func (s *Service) ByID(ctx context.Context, id string) (Detail, bool) {
	if !s.store.Enabled() || id == "" {
		return Detail{}, false
	}
	d, ok, err := s.queryDetail(ctx, id)
	if err != nil {
		s.store.Log().Error("patient detail query failed", "user_id", id, "err", err)
		return Detail{}, false
	}
	return d, ok
}

// Messages lists recent conversation rows for a patient, newest first.
func (s *Service) Messages(ctx context.Context, userID string, limit int) []Message {
	if !s.store.Enabled() || userID == "" {
		return []Message{}
	}
	if limit <= 0 {
		limit = 50
	}
	out, err := s.queryMessages(ctx, userID, limit)
	if err != nil {
		s.store.Log().Error("messages query failed", "user_id", userID, "err", err)
		return []Message{}
	}
	return out
}

// VaultSummary counts the health-vault records for a patient.
func (s *Service) VaultSummary(ctx context.Context, userID string) VaultSummary {
	if !s.store.Enabled() || userID == "" {
		return VaultSummary{}
	}
	v, err := s.queryVaultSummary(ctx, userID)
	if err != nil {
		s.store.Log().Error("vault summary query failed", "user_id", userID, "err", err)
		return VaultSummary{}
	}
	return v
}

// SoftDelete hides a patient from every roster and report without removing
// rows. Returns ErrNotFound when the id does not match a live user.
func (s *Service) SoftDelete(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidArgument
	}
	if !s.store.Enabled() {
		return store.ErrNotConfigured
	}
	return s.execSoftDelete(ctx, userID, s.clock().UTC())
}

// distressStates are the emotional states that pull a patient to the top of
// operator attention everywhere in the dashboard.
var distressStates = map[string]bool{
	"anxious":    true,
	"frustrated": true,
	"worried":    true,
}

// IsDistress reports whether an emotional state warrants priority handling.
func IsDistress(state string) bool {
	return distressStates[state]
}

// ActivityStatus derives the activity label shown next to a patient from the
// last message timestamp. It is a pure function of (now, lastMessageAt);
// nothing stores this label.
func ActivityStatus(now time.Time, lastMessageAt *time.Time) string {
	if lastMessageAt == nil {
		return "inactive"
	}
	hours := now.Sub(*lastMessageAt).Hours()
	switch {
	case hours < 1:
		return "active"
	case hours < 24:
		return "recent"
	case hours < 72:
		return "idle"
	default:
		return "inactive"
	}
}

// SortRoster orders the dashboard roster: needs-human escalations first,
// then distress emotional states, then most recent activity.
func SortRoster(rows []RosterRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.NeedsHuman != b.NeedsHuman {
			return a.NeedsHuman
		}
		ad := a.EmotionalState != nil && IsDistress(*a.EmotionalState)
		bd := b.EmotionalState != nil && IsDistress(*b.EmotionalState)
		if ad != bd {
			return ad
		}
		at, bt := int64(0), int64(0)
		if a.LastMessageAt != nil {
			at = a.LastMessageAt.UnixMilli()
		}
		if b.LastMessageAt != nil {
			bt = b.LastMessageAt.UnixMilli()
		}
		return at > bt
	})
}
