package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"retroboard/internal/reaction/models"
	id "retroboard/pkg/domain"
)

// Postgres persists reactions in PostgreSQL. The (card_id, user_hash,
// reaction_type) unique index is the single enforcement point for the
// at-most-one rule; upsert detection rides on it.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Upsert(ctx context.Context, reaction *models.Reaction) (bool, error) {
	// DO NOTHING + RowsAffected tells us whether the tuple was new without
	// touching the stored row's timestamp on repeats.
	query := `
		INSERT INTO reactions (id, card_id, board_id, user_hash, reaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (card_id, user_hash, reaction_type) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(reaction.ID), uuid.UUID(reaction.CardID), uuid.UUID(reaction.BoardID),
		reaction.UserHash, reaction.Type, reaction.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert reaction rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *Postgres) Delete(ctx context.Context, cardID id.CardID, userHash, reactionType string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE card_id = $1 AND user_hash = $2 AND reaction_type = $3`,
		uuid.UUID(cardID), userHash, reactionType,
	)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete reaction rows affected: %w", err)
	}
	return rows > 0, nil
}

func (s *Postgres) ListByCard(ctx context.Context, cardID id.CardID) ([]*models.Reaction, error) {
	query := `SELECT id, card_id, board_id, user_hash, reaction_type, created_at FROM reactions WHERE card_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(cardID))
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	defer rows.Close()

	var out []*models.Reaction
	for rows.Next() {
		var (
			reaction   models.Reaction
			reactionID uuid.UUID
			cID        uuid.UUID
			bID        uuid.UUID
		)
		if err := rows.Scan(&reactionID, &cID, &bID, &reaction.UserHash, &reaction.Type, &reaction.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reaction: %w", err)
		}
		reaction.ID = id.ReactionID(reactionID)
		reaction.CardID = id.CardID(cID)
		reaction.BoardID = id.BoardID(bID)
		out = append(out, &reaction)
	}
	return out, rows.Err()
}

func (s *Postgres) CountByBoardAndUser(ctx context.Context, boardID id.BoardID, userHash string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reactions WHERE board_id = $1 AND user_hash = $2`,
		uuid.UUID(boardID), userHash,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count reactions by user: %w", err)
	}
	return count, nil
}

func (s *Postgres) DeleteByCards(ctx context.Context, cardIDs []id.CardID) (int, error) {
	if len(cardIDs) == 0 {
		return 0, nil
	}
	ids := make([]uuid.UUID, len(cardIDs))
	for i, cardID := range cardIDs {
		ids[i] = uuid.UUID(cardID)
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM reactions WHERE card_id = ANY($1::uuid[])`, pq.Array(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("delete reactions by cards: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete reactions rows affected: %w", err)
	}
	return int(rows), nil
}

// BulkInsert writes all reactions with unnest for O(1) round trips.
func (s *Postgres) BulkInsert(ctx context.Context, reactions []*models.Reaction) error {
	if len(reactions) == 0 {
		return nil
	}
	n := len(reactions)
	ids := make([]uuid.UUID, n)
	cardIDs := make([]uuid.UUID, n)
	boardIDs := make([]uuid.UUID, n)
	hashes := make([]string, n)
	types := make([]string, n)
	for i, reaction := range reactions {
		ids[i] = uuid.UUID(reaction.ID)
		cardIDs[i] = uuid.UUID(reaction.CardID)
		boardIDs[i] = uuid.UUID(reaction.BoardID)
		hashes[i] = reaction.UserHash
		types[i] = reaction.Type
	}
	createdAt := reactions[0].CreatedAt

	query := `
		INSERT INTO reactions (id, card_id, board_id, user_hash, reaction_type, created_at)
		SELECT unnest($1::uuid[]), unnest($2::uuid[]), unnest($3::uuid[]),
			unnest($4::text[]), unnest($5::text[]), $6
	`
	_, err := s.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(cardIDs), pq.Array(boardIDs),
		pq.Array(hashes), pq.Array(types), createdAt,
	)
	if err != nil {
		return fmt.Errorf("bulk insert reactions: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reactions WHERE board_id = $1`, uuid.UUID(boardID))
	if err != nil {
		return 0, fmt.Errorf("delete reactions by board: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete reactions rows affected: %w", err)
	}
	return int(rows), nil
}
