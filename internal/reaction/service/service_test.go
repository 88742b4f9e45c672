package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	boardmodels "retroboard/internal/board/models"
	boardstore "retroboard/internal/board/store"
	cardmodels "retroboard/internal/card/models"
	cardservice "retroboard/internal/card/service"
	cardstore "retroboard/internal/card/store"
	reactionstore "retroboard/internal/reaction/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
)

type ReactionLedgerSuite struct {
	suite.Suite
	ctx context.Context
}

func TestReactionLedgerSuite(t *testing.T) {
	suite.Run(t, new(ReactionLedgerSuite))
}

func (s *ReactionLedgerSuite) SetupSuite() {
	s.ctx = context.Background()
}

type ledgerFixture struct {
	boards *boardstore.InMemory
	cards  *cardstore.InMemory
	svc    *Service
	graph  *cardservice.Service
	board  *boardmodels.Board
}

func (s *ReactionLedgerSuite) newFixture(reactionLimit *int) *ledgerFixture {
	boards := boardstore.NewInMemory()
	cards := cardstore.NewInMemory()
	reactions := reactionstore.NewInMemory()

	board, err := boardmodels.NewBoard(id.NewBoardID(), "Retro",
		[]boardmodels.Column{{Name: "Went well"}}, nil, reactionLimit, "creator-hash", time.Now())
	require.NoError(s.T(), err)
	require.NoError(s.T(), boards.Create(s.ctx, board))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := keyedmutex.New()
	graph := cardservice.New(cards, reactions, boards, locks, cardservice.WithLogger(logger))
	svc := New(reactions, cards, boards, graph, locks, WithLogger(logger))
	return &ledgerFixture{boards: boards, cards: cards, svc: svc, graph: graph, board: board}
}

func (f *ledgerFixture) mustCreateCard(t *testing.T, ctx context.Context) *cardmodels.Card {
	t.Helper()
	card, err := f.graph.CreateCard(ctx, f.board.ID, f.board.Columns[0].ID, "card", cardmodels.CardTypeFeedback, false, "author", "")
	require.NoError(t, err)
	return card
}

func (s *ReactionLedgerSuite) TestAddReaction() {
	s.Run("stores the reaction and bumps counts", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)

		got, created, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.True(created)
		s.Equal(1, got.DirectReactionCount)
		s.Equal(1, got.AggregatedReactionCount)
	})

	s.Run("is idempotent per (card, user, type)", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)

		_, created, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.True(created)

		got, created, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.False(created)
		s.Equal(1, got.DirectReactionCount)
	})

	s.Run("different types from one user are distinct", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)

		_, _, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		got, created, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "heart")
		require.NoError(s.T(), err)
		s.True(created)
		s.Equal(2, got.DirectReactionCount)
	})

	s.Run("propagates into the parent aggregation", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx)
		child := f.mustCreateCard(s.T(), s.ctx)
		_, err := f.graph.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)

		_, _, err = f.svc.AddReaction(s.ctx, child.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)

		got, err := f.cards.FindByID(s.ctx, parent.ID)
		require.NoError(s.T(), err)
		s.Equal(0, got.DirectReactionCount)
		s.Equal(1, got.AggregatedReactionCount)
	})

	s.Run("enforces the per-user reaction limit", func() {
		limit := 2
		f := s.newFixture(&limit)
		cardA := f.mustCreateCard(s.T(), s.ctx)
		cardB := f.mustCreateCard(s.T(), s.ctx)
		cardC := f.mustCreateCard(s.T(), s.ctx)

		_, _, err := f.svc.AddReaction(s.ctx, cardA.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		_, _, err = f.svc.AddReaction(s.ctx, cardB.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)

		_, _, err = f.svc.AddReaction(s.ctx, cardC.ID, "user-a", "thumbsup")
		s.True(dErrors.HasCode(err, dErrors.CodeReactionLimitReached))

		// Another user still has room.
		_, created, err := f.svc.AddReaction(s.ctx, cardC.ID, "user-b", "thumbsup")
		require.NoError(s.T(), err)
		s.True(created)
	})

	s.Run("rejects closed boards", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)
		f.board.ApplyClose(time.Now())
		require.NoError(s.T(), f.boards.Update(s.ctx, f.board))

		_, _, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		s.True(dErrors.HasCode(err, dErrors.CodeBoardClosed))
	})

	s.Run("rejects invalid reaction types", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)
		_, _, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ReactionLedgerSuite) TestRemoveReaction() {
	s.Run("removes and decrements counts", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)
		_, _, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)

		got, removed, err := f.svc.RemoveReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.True(removed)
		s.Equal(0, got.DirectReactionCount)
		s.Equal(0, got.AggregatedReactionCount)
	})

	s.Run("removing an absent reaction is a no-op", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx)

		got, removed, err := f.svc.RemoveReaction(s.ctx, card.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.False(removed)
		s.Equal(0, got.DirectReactionCount)
	})

	s.Run("updates the parent aggregation", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx)
		child := f.mustCreateCard(s.T(), s.ctx)
		_, err := f.graph.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)
		_, _, err = f.svc.AddReaction(s.ctx, child.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)

		_, removed, err := f.svc.RemoveReaction(s.ctx, child.ID, "user-a", "thumbsup")
		require.NoError(s.T(), err)
		s.True(removed)

		got, err := f.cards.FindByID(s.ctx, parent.ID)
		require.NoError(s.T(), err)
		s.Equal(0, got.AggregatedReactionCount)
	})
}

func (s *ReactionLedgerSuite) TestListReactions() {
	f := s.newFixture(nil)
	card := f.mustCreateCard(s.T(), s.ctx)
	_, _, err := f.svc.AddReaction(s.ctx, card.ID, "user-a", "thumbsup")
	require.NoError(s.T(), err)
	_, _, err = f.svc.AddReaction(s.ctx, card.ID, "user-b", "heart")
	require.NoError(s.T(), err)

	reactions, err := f.svc.ListReactions(s.ctx, card.ID)
	require.NoError(s.T(), err)
	s.Len(reactions, 2)

	_, err = f.svc.ListReactions(s.ctx, id.NewCardID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
