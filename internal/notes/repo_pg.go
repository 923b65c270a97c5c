package notes

import (
	"context"
	"fmt"
	"strings"

	"vivebien-dashboard/internal/store"
)

// PGRepo stores operator notes in Postgres. tags is a text[] column,
// bridged through string_to_array/array_to_string so the stdlib driver can
// bind it.
type PGRepo struct {
	store *store.Store
}

func NewPGRepo(st *store.Store) *PGRepo {
	return &PGRepo{store: st}
}

const tagSeparator = "\x1f"

func (r *PGRepo) Append(ctx context.Context, n OperatorNote) error {
	if !r.store.Enabled() {
		return store.ErrNotConfigured
	}
	q := fmt.Sprintf(`
INSERT INTO %s (id, user_id, note, tags, created_by, created_at)
VALUES ($1, $2, $3, string_to_array(NULLIF($4, ''), $5), $6, $7)
`, r.store.Table("operator_notes"))

	_, err := r.store.DB().ExecContext(ctx, q,
		n.ID, n.UserID, n.Note, strings.Join(n.Tags, tagSeparator), tagSeparator, n.CreatedBy, n.CreatedAt)
	if err != nil {
		r.store.Log().Error("note insert failed", "user_id", n.UserID, "err", err)
	}
	return err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]OperatorNote, error) {
	if !r.store.Enabled() {
		return []OperatorNote{}, nil
	}
	q := fmt.Sprintf(`
SELECT id, user_id, session_id, note, COALESCE(array_to_string(tags, $2), ''), created_by, created_at
FROM %s
WHERE user_id = $1
ORDER BY created_at DESC
`, r.store.Table("operator_notes"))

	rows, err := r.store.DB().QueryContext(ctx, q, userID, tagSeparator)
	if err != nil {
		r.store.Log().Error("notes query failed", "user_id", userID, "err", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]OperatorNote, 0)
	for rows.Next() {
		var n OperatorNote
		var tags string
		if err := rows.Scan(&n.ID, &n.UserID, &n.SessionID, &n.Note, &tags, &n.CreatedBy, &n.CreatedAt); err != nil {
			return nil, err
		}
		if tags != "" {
			n.Tags = strings.Split(tags, tagSeparator)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
