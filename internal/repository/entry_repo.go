package repository

import (
	"context"

	"github.com/google/uuid"

	"samarth-chat/internal/models"
)

// EntryRepo persists widget transcripts so a session survives restarts.
type EntryRepo struct {
	db DBTX
}

func NewEntryRepo(db DBTX) *EntryRepo {
	return &EntryRepo{db: db}
}

func (r *EntryRepo) Append(ctx context.Context, sessionID uuid.UUID, e models.Entry) error {
	query := `INSERT INTO transcript_entries (id, session_id, seq, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query, e.ID, sessionID, e.Seq, string(e.Role), e.Text, e.CreatedAt)
	return err
}

func (r *EntryRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, seq, role, text, created_at FROM transcript_entries
		WHERE session_id = $1 ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		var e models.Entry
		var role string
		if err := rows.Scan(&e.ID, &e.Seq, &role, &e.Text, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Role = models.Role(role)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
