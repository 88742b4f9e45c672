package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"retroboard/internal/board/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

// Postgres persists boards in PostgreSQL. Columns are stored as JSONB since
// they are only ever read and written through their board. This store is
// pure I/O; lifecycle rules live in the service.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed board store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const boardColumns = `id, name, columns, state, card_limit_per_user, reaction_limit_per_user, created_by_hash, admins, created_at, closed_at`

func (s *Postgres) Create(ctx context.Context, board *models.Board) error {
	cols, err := json.Marshal(board.Columns)
	if err != nil {
		return fmt.Errorf("marshal board columns: %w", err)
	}
	query := `
		INSERT INTO boards (` + boardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(board.ID), board.Name, cols, string(board.State),
		board.CardLimitPerUser, board.ReactionLimitPerUser,
		board.CreatedByHash, pq.Array(board.Admins),
		board.CreatedAt, board.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("create board rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, boardID id.BoardID) (*models.Board, error) {
	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1`
	board, err := scanBoard(s.db.QueryRowContext(ctx, query, uuid.UUID(boardID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find board: %w", err)
	}
	return board, nil
}

func (s *Postgres) Update(ctx context.Context, board *models.Board) error {
	cols, err := json.Marshal(board.Columns)
	if err != nil {
		return fmt.Errorf("marshal board columns: %w", err)
	}
	query := `
		UPDATE boards SET
			name = $2, columns = $3, state = $4,
			card_limit_per_user = $5, reaction_limit_per_user = $6,
			admins = $7, closed_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		uuid.UUID(board.ID), board.Name, cols, string(board.State),
		board.CardLimitPerUser, board.ReactionLimitPerUser,
		pq.Array(board.Admins), board.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update board rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Execute runs validate-then-mutate under SELECT ... FOR UPDATE so concurrent
// lifecycle changes serialize on the board row.
func (s *Postgres) Execute(ctx context.Context, boardID id.BoardID, validate func(*models.Board) error, mutate func(*models.Board)) (*models.Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin board execute: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + boardColumns + ` FROM boards WHERE id = $1 FOR UPDATE`
	board, err := scanBoard(tx.QueryRowContext(ctx, query, uuid.UUID(boardID)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock board: %w", err)
	}

	if err := validate(board); err != nil {
		return nil, err
	}
	mutate(board)

	cols, err := json.Marshal(board.Columns)
	if err != nil {
		return nil, fmt.Errorf("marshal board columns: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE boards SET
			name = $2, columns = $3, state = $4,
			card_limit_per_user = $5, reaction_limit_per_user = $6,
			admins = $7, closed_at = $8
		WHERE id = $1
	`,
		uuid.UUID(board.ID), board.Name, cols, string(board.State),
		board.CardLimitPerUser, board.ReactionLimitPerUser,
		pq.Array(board.Admins), board.ClosedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("persist board execute: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit board execute: %w", err)
	}
	return board, nil
}

type boardRow interface {
	Scan(dest ...any) error
}

func scanBoard(row boardRow) (*models.Board, error) {
	var (
		board    models.Board
		boardID  uuid.UUID
		colsJSON []byte
		state    string
		admins   pq.StringArray
		closedAt sql.NullTime
	)
	if err := row.Scan(
		&boardID, &board.Name, &colsJSON, &state,
		&board.CardLimitPerUser, &board.ReactionLimitPerUser,
		&board.CreatedByHash, &admins, &board.CreatedAt, &closedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(colsJSON, &board.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal board columns: %w", err)
	}
	board.ID = id.BoardID(boardID)
	board.State = models.BoardState(state)
	board.Admins = admins
	if closedAt.Valid {
		board.ClosedAt = &closedAt.Time
	}
	return &board, nil
}
