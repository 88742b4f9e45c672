package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"retroboard/internal/session/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

// Postgres persists sessions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Upsert(ctx context.Context, session *models.UserSession) (bool, error) {
	query := `
		INSERT INTO user_sessions (board_id, user_hash, alias, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (board_id, user_hash) DO UPDATE SET
			alias = EXCLUDED.alias
		RETURNING (xmax = 0) AS inserted
	`
	var inserted bool
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(session.BoardID), session.UserHash, nullString(session.Alias), session.JoinedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert session: %w", err)
	}
	return inserted, nil
}

func (s *Postgres) Find(ctx context.Context, boardID id.BoardID, userHash string) (*models.UserSession, error) {
	query := `SELECT board_id, user_hash, alias, joined_at FROM user_sessions WHERE board_id = $1 AND user_hash = $2`
	session, err := scanSession(s.db.QueryRowContext(ctx, query, uuid.UUID(boardID), userHash))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return session, nil
}

func (s *Postgres) ListByBoard(ctx context.Context, boardID id.BoardID) ([]*models.UserSession, error) {
	query := `SELECT board_id, user_hash, alias, joined_at FROM user_sessions WHERE board_id = $1 ORDER BY joined_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(boardID))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.UserSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, session)
	}
	return out, rows.Err()
}

func (s *Postgres) CountByBoard(ctx context.Context, boardID id.BoardID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_sessions WHERE board_id = $1`, uuid.UUID(boardID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// BulkInsert writes all sessions with unnest for O(1) round trips.
func (s *Postgres) BulkInsert(ctx context.Context, sessions []*models.UserSession) error {
	if len(sessions) == 0 {
		return nil
	}
	boardIDs := make([]uuid.UUID, len(sessions))
	hashes := make([]string, len(sessions))
	aliases := make([]string, len(sessions))
	for i, session := range sessions {
		boardIDs[i] = uuid.UUID(session.BoardID)
		hashes[i] = session.UserHash
		aliases[i] = session.Alias
	}
	joinedAt := sessions[0].JoinedAt

	query := `
		INSERT INTO user_sessions (board_id, user_hash, alias, joined_at)
		SELECT unnest($1::uuid[]), unnest($2::text[]), unnest($3::text[]), $4
	`
	_, err := s.db.ExecContext(ctx, query, pq.Array(boardIDs), pq.Array(hashes), pq.Array(aliases), joinedAt)
	if err != nil {
		return fmt.Errorf("bulk insert sessions: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE board_id = $1`, uuid.UUID(boardID))
	if err != nil {
		return 0, fmt.Errorf("delete sessions by board: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete sessions rows affected: %w", err)
	}
	return int(rows), nil
}

type sessionRow interface {
	Scan(dest ...any) error
}

func scanSession(row sessionRow) (*models.UserSession, error) {
	var (
		session models.UserSession
		boardID uuid.UUID
		alias   sql.NullString
	)
	if err := row.Scan(&boardID, &session.UserHash, &alias, &session.JoinedAt); err != nil {
		return nil, err
	}
	session.BoardID = id.BoardID(boardID)
	session.Alias = alias.String
	return &session, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
