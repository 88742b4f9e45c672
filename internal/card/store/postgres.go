package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

// Postgres persists cards in PostgreSQL. Cross-link sets live in a uuid[]
// column; parent pointers are a nullable foreign key into the same table.
// The store is pure I/O, graph rules live in the service.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const cardColumns = `id, board_id, column_id, content, card_type, is_anonymous,
	created_by_hash, created_by_alias, created_at, updated_at,
	parent_card_id, linked_feedback_ids, direct_reaction_count, aggregated_reaction_count`

func (s *Postgres) Create(ctx context.Context, card *models.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, cardArgs(card)...)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create card rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, cardID id.CardID) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, uuid.UUID(cardID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find card: %w", err)
	}
	return card, nil
}

func (s *Postgres) Update(ctx context.Context, card *models.Card) error {
	var parent *uuid.UUID
	if card.ParentCardID != nil {
		p := uuid.UUID(*card.ParentCardID)
		parent = &p
	}
	links := make([]uuid.UUID, len(card.LinkedFeedbackIDs))
	for i, l := range card.LinkedFeedbackIDs {
		links[i] = uuid.UUID(l)
	}
	query := `
		UPDATE cards SET
			column_id = $3, content = $4, card_type = $5, is_anonymous = $6,
			created_by_alias = $7, updated_at = $8,
			parent_card_id = $9, linked_feedback_ids = $10,
			direct_reaction_count = $11, aggregated_reaction_count = $12
		WHERE id = $1 AND board_id = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(card.ID), uuid.UUID(card.BoardID), uuid.UUID(card.ColumnID),
		card.Content, string(card.Type), card.IsAnonymous,
		nullString(card.CreatedByAlias), card.UpdatedAt,
		parent, pq.Array(links),
		card.DirectReactionCount, card.AggregatedReactionCount,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update card rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, cardID id.CardID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, uuid.UUID(cardID))
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete card rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByBoard(ctx context.Context, boardID id.BoardID) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE board_id = $1 ORDER BY created_at`
	return s.queryCards(ctx, query, uuid.UUID(boardID))
}

func (s *Postgres) ListChildren(ctx context.Context, parentID id.CardID) ([]*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE parent_card_id = $1 ORDER BY created_at`
	return s.queryCards(ctx, query, uuid.UUID(parentID))
}

func (s *Postgres) CountByBoard(ctx context.Context, boardID id.BoardID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE board_id = $1`, uuid.UUID(boardID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return count, nil
}

func (s *Postgres) CountByBoardAndAuthor(ctx context.Context, boardID id.BoardID, authorHash string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE board_id = $1 AND created_by_hash = $2`,
		uuid.UUID(boardID), authorHash,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count cards by author: %w", err)
	}
	return count, nil
}

// AdjustDirectCount applies the delta atomically, clamping at zero.
func (s *Postgres) AdjustDirectCount(ctx context.Context, cardID id.CardID, delta int) (*models.Card, error) {
	query := `
		UPDATE cards
		SET direct_reaction_count = GREATEST(direct_reaction_count + $2, 0)
		WHERE id = $1
		RETURNING ` + cardColumns + `
	`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, uuid.UUID(cardID), delta))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("adjust direct count: %w", err)
	}
	return card, nil
}

func (s *Postgres) SetAggregatedCount(ctx context.Context, cardID id.CardID, count int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE cards SET aggregated_reaction_count = $2 WHERE id = $1`,
		uuid.UUID(cardID), count,
	)
	if err != nil {
		return fmt.Errorf("set aggregated count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set aggregated count rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// BulkInsert writes all cards with unnest for O(1) round trips instead of
// O(n) per-row inserts. Seeding only generates root-or-parent structures,
// so parent pointers are written as-is.
func (s *Postgres) BulkInsert(ctx context.Context, cards []*models.Card) error {
	if len(cards) == 0 {
		return nil
	}
	n := len(cards)
	ids := make([]uuid.UUID, n)
	boardIDs := make([]uuid.UUID, n)
	columnIDs := make([]uuid.UUID, n)
	contents := make([]string, n)
	types := make([]string, n)
	anonymous := make([]bool, n)
	hashes := make([]string, n)
	aliases := make([]string, n)
	parents := make([]*uuid.UUID, n)
	for i, card := range cards {
		ids[i] = uuid.UUID(card.ID)
		boardIDs[i] = uuid.UUID(card.BoardID)
		columnIDs[i] = uuid.UUID(card.ColumnID)
		contents[i] = card.Content
		types[i] = string(card.Type)
		anonymous[i] = card.IsAnonymous
		hashes[i] = card.CreatedByHash
		aliases[i] = card.CreatedByAlias
		if card.ParentCardID != nil {
			p := uuid.UUID(*card.ParentCardID)
			parents[i] = &p
		}
	}
	createdAt := cards[0].CreatedAt

	query := `
		INSERT INTO cards (id, board_id, column_id, content, card_type, is_anonymous,
			created_by_hash, created_by_alias, created_at, parent_card_id,
			linked_feedback_ids, direct_reaction_count, aggregated_reaction_count)
		SELECT unnest($1::uuid[]), unnest($2::uuid[]), unnest($3::uuid[]),
			unnest($4::text[]), unnest($5::text[]), unnest($6::boolean[]),
			unnest($7::text[]), unnest($8::text[]), $9, unnest($10::uuid[]),
			'{}'::uuid[], 0, 0
	`
	_, err := s.db.ExecContext(ctx, query,
		pq.Array(ids), pq.Array(boardIDs), pq.Array(columnIDs),
		pq.Array(contents), pq.Array(types), pq.Array(anonymous),
		pq.Array(hashes), pq.Array(aliases), createdAt, pq.Array(parents),
	)
	if err != nil {
		return fmt.Errorf("bulk insert cards: %w", err)
	}
	return nil
}

func (s *Postgres) DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE board_id = $1`, uuid.UUID(boardID))
	if err != nil {
		return 0, fmt.Errorf("delete cards by board: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete cards rows affected: %w", err)
	}
	return int(rows), nil
}

func (s *Postgres) queryCards(ctx context.Context, query string, arg any) ([]*models.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	var out []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, card)
	}
	return out, rows.Err()
}

func cardArgs(card *models.Card) []any {
	var parent *uuid.UUID
	if card.ParentCardID != nil {
		p := uuid.UUID(*card.ParentCardID)
		parent = &p
	}
	links := make([]uuid.UUID, len(card.LinkedFeedbackIDs))
	for i, l := range card.LinkedFeedbackIDs {
		links[i] = uuid.UUID(l)
	}
	return []any{
		uuid.UUID(card.ID), uuid.UUID(card.BoardID), uuid.UUID(card.ColumnID),
		card.Content, string(card.Type), card.IsAnonymous,
		card.CreatedByHash, nullString(card.CreatedByAlias),
		card.CreatedAt, card.UpdatedAt,
		parent, pq.Array(links),
		card.DirectReactionCount, card.AggregatedReactionCount,
	}
}

type cardRow interface {
	Scan(dest ...any) error
}

func scanCard(row cardRow) (*models.Card, error) {
	var (
		card     models.Card
		cardID   uuid.UUID
		boardID  uuid.UUID
		columnID uuid.UUID
		cardType string
		alias    sql.NullString
		updated  sql.NullTime
		parent   uuid.NullUUID
		links    []uuid.UUID
	)
	if err := row.Scan(
		&cardID, &boardID, &columnID, &card.Content, &cardType, &card.IsAnonymous,
		&card.CreatedByHash, &alias, &card.CreatedAt, &updated,
		&parent, pq.Array(&links), &card.DirectReactionCount, &card.AggregatedReactionCount,
	); err != nil {
		return nil, err
	}
	card.ID = id.CardID(cardID)
	card.BoardID = id.BoardID(boardID)
	card.ColumnID = id.ColumnID(columnID)
	card.Type = models.CardType(cardType)
	card.CreatedByAlias = alias.String
	if updated.Valid {
		card.UpdatedAt = &updated.Time
	}
	if parent.Valid {
		p := id.CardID(parent.UUID)
		card.ParentCardID = &p
	}
	if len(links) > 0 {
		card.LinkedFeedbackIDs = make([]id.CardID, len(links))
		for i, l := range links {
			card.LinkedFeedbackIDs[i] = id.CardID(l)
		}
	}
	return &card, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
