package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	boardmodels "retroboard/internal/board/models"
	boardservice "retroboard/internal/board/service"
	boardstore "retroboard/internal/board/store"
	cardmodels "retroboard/internal/card/models"
	cardstore "retroboard/internal/card/store"
	reactionstore "retroboard/internal/reaction/store"
	sessionstore "retroboard/internal/session/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
)

type MaintenanceSuite struct {
	suite.Suite
	ctx context.Context
}

func TestMaintenanceSuite(t *testing.T) {
	suite.Run(t, new(MaintenanceSuite))
}

func (s *MaintenanceSuite) SetupSuite() {
	s.ctx = context.Background()
}

type maintenanceFixture struct {
	boards    *boardstore.InMemory
	cards     *cardstore.InMemory
	reactions *reactionstore.InMemory
	sessions  *sessionstore.InMemory
	boardSvc  *boardservice.Service
	svc       *Service
	board     *boardmodels.Board
}

func (s *MaintenanceSuite) newFixture() *maintenanceFixture {
	boards := boardstore.NewInMemory()
	cards := cardstore.NewInMemory()
	reactions := reactionstore.NewInMemory()
	sessions := sessionstore.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	boardSvc := boardservice.New(boards, sessions, boardservice.WithLogger(logger))
	board, err := boardSvc.CreateBoard(s.ctx, "Retro",
		[]boardmodels.Column{{Name: "Went well"}, {Name: "To improve"}, {Name: "Actions"}},
		nil, nil, "creator", "Alice")
	require.NoError(s.T(), err)

	svc := New(boardSvc, cards, reactions, sessions, keyedmutex.New(), WithLogger(logger))
	return &maintenanceFixture{
		boards: boards, cards: cards, reactions: reactions, sessions: sessions,
		boardSvc: boardSvc, svc: svc, board: board,
	}
}

func (s *MaintenanceSuite) TestClearBoard() {
	f := s.newFixture()
	seeded, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
		NumUsers: 3, NumCards: 5, NumReactions: 4,
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), 5, seeded.CardsCreated)

	result, err := f.svc.ClearBoard(s.ctx, f.board.ID)
	require.NoError(s.T(), err)
	s.Equal(5, result.CardsDeleted)
	s.Equal(seeded.ReactionsCreated, result.ReactionsDeleted)
	s.Equal(4, result.SessionsDeleted) // creator + 3 seeded

	remaining, err := f.cards.ListByBoard(s.ctx, f.board.ID)
	require.NoError(s.T(), err)
	s.Empty(remaining)

	// The board itself survives with its state intact.
	board, err := f.boardSvc.GetBoard(s.ctx, f.board.ID)
	require.NoError(s.T(), err)
	s.True(board.IsActive())

	s.Run("unknown board", func() {
		_, err := f.svc.ClearBoard(s.ctx, id.NewBoardID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *MaintenanceSuite) TestResetBoard() {
	s.Run("reopens a closed board", func() {
		f := s.newFixture()
		_, err := f.boardSvc.CloseBoard(s.ctx, f.board.ID, "creator")
		require.NoError(s.T(), err)

		result, err := f.svc.ResetBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		s.True(result.Reopened)

		board, err := f.boardSvc.GetBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		s.True(board.IsActive())
		s.Nil(board.ClosedAt)
	})

	s.Run("active board is only wiped", func() {
		f := s.newFixture()
		result, err := f.svc.ResetBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		s.False(result.Reopened)
	})
}

func (s *MaintenanceSuite) TestSeedTestData() {
	s.Run("seeds users, cards, and reactions", func() {
		f := s.newFixture()
		result, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
			NumUsers: 4, NumCards: 9, NumActionCards: 2, NumReactions: 10,
		})
		require.NoError(s.T(), err)
		s.Equal(4, result.UsersCreated)
		s.Equal(9, result.CardsCreated)
		s.Equal(10, result.ReactionsCreated)
		s.Zero(result.ParentGroupsCreated)

		cards, err := f.cards.ListByBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		actions := 0
		for _, c := range cards {
			if c.Type == cardmodels.CardTypeAction {
				actions++
			}
		}
		s.Equal(2, actions)
	})

	s.Run("groups cards in threes when relationships are requested", func() {
		f := s.newFixture()
		result, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
			NumUsers: 2, NumCards: 6, CreateRelationships: true,
		})
		require.NoError(s.T(), err)
		s.Equal(2, result.ParentGroupsCreated)

		cards, err := f.cards.ListByBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		children := 0
		for _, c := range cards {
			if c.ParentCardID != nil {
				children++
			}
		}
		s.Equal(4, children)
	})

	s.Run("leftover cards stay roots", func() {
		f := s.newFixture()
		result, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
			NumUsers: 2, NumCards: 7, CreateRelationships: true,
		})
		require.NoError(s.T(), err)
		s.Equal(2, result.ParentGroupsCreated)

		cards, err := f.cards.ListByBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		roots := 0
		for _, c := range cards {
			if c.ParentCardID == nil {
				roots++
			}
		}
		s.Equal(3, roots)
	})

	s.Run("reaction count collapses to distinct pairs", func() {
		f := s.newFixture()
		result, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
			NumUsers: 1, NumCards: 1, NumReactions: 5,
		})
		require.NoError(s.T(), err)
		s.Equal(1, result.ReactionsCreated)
	})

	s.Run("seeded counts satisfy the aggregation identity", func() {
		f := s.newFixture()
		_, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{
			NumUsers: 5, NumCards: 12, NumReactions: 30, CreateRelationships: true,
		})
		require.NoError(s.T(), err)

		cards, err := f.cards.ListByBoard(s.ctx, f.board.ID)
		require.NoError(s.T(), err)
		direct := make(map[id.CardID]int, len(cards))
		for _, c := range cards {
			direct[c.ID] = c.DirectReactionCount
		}
		for _, c := range cards {
			want := c.DirectReactionCount
			for _, other := range cards {
				if other.ParentCardID != nil && *other.ParentCardID == c.ID {
					want += direct[other.ID]
				}
			}
			s.Equal(want, c.AggregatedReactionCount)
		}
	})

	s.Run("rejects closed boards", func() {
		f := s.newFixture()
		_, err := f.boardSvc.CloseBoard(s.ctx, f.board.ID, "creator")
		require.NoError(s.T(), err)

		_, err = f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{NumUsers: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeBoardClosed))
	})

	s.Run("rejects out-of-range parameters", func() {
		f := s.newFixture()
		_, err := f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{NumUsers: -1})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))

		_, err = f.svc.SeedTestData(s.ctx, f.board.ID, SeedParams{NumCards: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}
