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
	"retroboard/internal/card/models"
	cardstore "retroboard/internal/card/store"
	reactionmodels "retroboard/internal/reaction/models"
	reactionstore "retroboard/internal/reaction/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
)

type GraphEngineSuite struct {
	suite.Suite
	ctx context.Context
}

func TestGraphEngineSuite(t *testing.T) {
	suite.Run(t, new(GraphEngineSuite))
}

func (s *GraphEngineSuite) SetupSuite() {
	s.ctx = context.Background()
}

type graphFixture struct {
	boards    *boardstore.InMemory
	cards     *cardstore.InMemory
	reactions *reactionstore.InMemory
	svc       *Service
	board     *boardmodels.Board
}

func (s *GraphEngineSuite) newFixture(cardLimit *int) *graphFixture {
	boards := boardstore.NewInMemory()
	cards := cardstore.NewInMemory()
	reactions := reactionstore.NewInMemory()

	board, err := boardmodels.NewBoard(id.NewBoardID(), "Sprint 42 Retro",
		[]boardmodels.Column{{Name: "Went well"}, {Name: "To improve"}},
		cardLimit, nil, "creator-hash", time.Now())
	require.NoError(s.T(), err)
	require.NoError(s.T(), boards.Create(s.ctx, board))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(cards, reactions, boards, keyedmutex.New(), WithLogger(logger))
	return &graphFixture{boards: boards, cards: cards, reactions: reactions, svc: svc, board: board}
}

func (f *graphFixture) mustCreateCard(t *testing.T, ctx context.Context, content, author string) *models.Card {
	t.Helper()
	card, err := f.svc.CreateCard(ctx, f.board.ID, f.board.Columns[0].ID, content, models.CardTypeFeedback, false, author, "Alice")
	require.NoError(t, err)
	return card
}

func (f *graphFixture) reload(t *testing.T, ctx context.Context, cardID id.CardID) *models.Card {
	t.Helper()
	card, err := f.cards.FindByID(ctx, cardID)
	require.NoError(t, err)
	return card
}

// react stores a reaction row and applies its count delta, mimicking what
// the reaction ledger does on the happy path.
func (f *graphFixture) react(t *testing.T, ctx context.Context, cardID id.CardID, user string) {
	t.Helper()
	created, err := f.reactions.Upsert(ctx, &reactionmodels.Reaction{
		ID: id.NewReactionID(), CardID: cardID, BoardID: f.board.ID,
		UserHash: user, Type: "thumbsup", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.True(t, created)
	_, err = f.svc.ApplyReactionDelta(ctx, cardID, 1)
	require.NoError(t, err)
}

func (s *GraphEngineSuite) TestCreateCard() {
	s.Run("creates a root card with zero counts", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx, "standup is too long", "user-1")
		s.Equal(f.board.ID, card.BoardID)
		s.Nil(card.ParentCardID)
		s.Zero(card.DirectReactionCount)
		s.Zero(card.AggregatedReactionCount)
	})

	s.Run("rejects unknown column", func() {
		f := s.newFixture(nil)
		_, err := f.svc.CreateCard(s.ctx, f.board.ID, id.NewColumnID(), "content", models.CardTypeFeedback, false, "user-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejects closed board", func() {
		f := s.newFixture(nil)
		f.board.ApplyClose(time.Now())
		require.NoError(s.T(), f.boards.Update(s.ctx, f.board))
		_, err := f.svc.CreateCard(s.ctx, f.board.ID, f.board.Columns[0].ID, "content", models.CardTypeFeedback, false, "user-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodeBoardClosed))
	})

	s.Run("enforces per-user card limit", func() {
		limit := 2
		f := s.newFixture(&limit)
		f.mustCreateCard(s.T(), s.ctx, "one", "user-1")
		f.mustCreateCard(s.T(), s.ctx, "two", "user-1")
		_, err := f.svc.CreateCard(s.ctx, f.board.ID, f.board.Columns[0].ID, "three", models.CardTypeFeedback, false, "user-1", "")
		s.True(dErrors.HasCode(err, dErrors.CodeCardLimitReached))

		// A different author is not affected.
		f.mustCreateCard(s.T(), s.ctx, "three", "user-2")
	})

	s.Run("blanks alias on anonymous cards", func() {
		f := s.newFixture(nil)
		card, err := f.svc.CreateCard(s.ctx, f.board.ID, f.board.Columns[0].ID, "content", models.CardTypeFeedback, true, "user-1", "Alice")
		require.NoError(s.T(), err)
		s.Empty(card.CreatedByAlias)
	})
}

func (s *GraphEngineSuite) TestSetParentLink() {
	s.Run("links child under parent and aggregates", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		f.react(s.T(), s.ctx, parent.ID, "user-a")
		f.react(s.T(), s.ctx, child.ID, "user-a")
		f.react(s.T(), s.ctx, child.ID, "user-b")

		linked, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)
		s.Equal(parent.ID, *linked.ParentCardID)

		got := f.reload(s.T(), s.ctx, parent.ID)
		s.Equal(1, got.DirectReactionCount)
		s.Equal(3, got.AggregatedReactionCount)

		gotChild := f.reload(s.T(), s.ctx, child.ID)
		s.Equal(2, gotChild.DirectReactionCount)
		s.Equal(2, gotChild.AggregatedReactionCount)
	})

	s.Run("rejects self parent", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx, "card", "user-1")
		_, err := f.svc.SetParentLink(s.ctx, card.ID, card.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeCircularRelationship))
	})

	s.Run("rejects parent that is already a child", func() {
		f := s.newFixture(nil)
		grandparent := f.mustCreateCard(s.T(), s.ctx, "grandparent", "user-1")
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		card := f.mustCreateCard(s.T(), s.ctx, "card", "user-1")
		_, err := f.svc.SetParentLink(s.ctx, parent.ID, grandparent.ID)
		require.NoError(s.T(), err)

		_, err = f.svc.SetParentLink(s.ctx, card.ID, parent.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeParentCannotBeChild))
	})

	s.Run("rejects child that already has children", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		other := f.mustCreateCard(s.T(), s.ctx, "other", "user-1")
		_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)

		_, err = f.svc.SetParentLink(s.ctx, parent.ID, other.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeChildCannotBeParent))
	})

	s.Run("rejects link between cross-linked cards", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		b := f.mustCreateCard(s.T(), s.ctx, "b", "user-1")
		_, _, err := f.svc.AddCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)

		_, err = f.svc.SetParentLink(s.ctx, a.ID, b.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("re-parenting moves aggregation to the new parent", func() {
		f := s.newFixture(nil)
		oldParent := f.mustCreateCard(s.T(), s.ctx, "old parent", "user-1")
		newParent := f.mustCreateCard(s.T(), s.ctx, "new parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		f.react(s.T(), s.ctx, child.ID, "user-a")

		_, err := f.svc.SetParentLink(s.ctx, child.ID, oldParent.ID)
		require.NoError(s.T(), err)
		s.Equal(1, f.reload(s.T(), s.ctx, oldParent.ID).AggregatedReactionCount)

		_, err = f.svc.SetParentLink(s.ctx, child.ID, newParent.ID)
		require.NoError(s.T(), err)
		s.Equal(0, f.reload(s.T(), s.ctx, oldParent.ID).AggregatedReactionCount)
		s.Equal(1, f.reload(s.T(), s.ctx, newParent.ID).AggregatedReactionCount)
	})
}

func (s *GraphEngineSuite) TestRemoveParentLink() {
	f := s.newFixture(nil)
	parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
	child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
	f.react(s.T(), s.ctx, child.ID, "user-a")
	_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
	require.NoError(s.T(), err)
	s.Equal(1, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)

	unlinked, err := f.svc.RemoveParentLink(s.ctx, child.ID)
	require.NoError(s.T(), err)
	s.Nil(unlinked.ParentCardID)
	s.Equal(0, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)
	s.Equal(1, f.reload(s.T(), s.ctx, child.ID).AggregatedReactionCount)

	// Unlinking a root card is a no-op.
	again, err := f.svc.RemoveParentLink(s.ctx, child.ID)
	require.NoError(s.T(), err)
	s.Nil(again.ParentCardID)
}

func (s *GraphEngineSuite) TestCrossLinks() {
	s.Run("links are symmetric and idempotent", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		b := f.mustCreateCard(s.T(), s.ctx, "b", "user-1")

		gotA, gotB, err := f.svc.AddCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)
		s.True(gotA.HasLink(b.ID))
		s.True(gotB.HasLink(a.ID))

		gotA, gotB, err = f.svc.AddCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)
		s.Len(gotA.LinkedFeedbackIDs, 1)
		s.Len(gotB.LinkedFeedbackIDs, 1)
	})

	s.Run("cross links never affect aggregation", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		b := f.mustCreateCard(s.T(), s.ctx, "b", "user-1")
		f.react(s.T(), s.ctx, b.ID, "user-a")

		_, _, err := f.svc.AddCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)
		s.Equal(0, f.reload(s.T(), s.ctx, a.ID).AggregatedReactionCount)
		s.Equal(1, f.reload(s.T(), s.ctx, b.ID).AggregatedReactionCount)
	})

	s.Run("rejects self link", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		_, _, err := f.svc.AddCrossLink(s.ctx, a.ID, a.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects link between parent and child", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)

		_, _, err = f.svc.AddCrossLink(s.ctx, parent.ID, child.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		_, _, err = f.svc.AddCrossLink(s.ctx, child.ID, parent.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("remove is a no-op when the edge is absent", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		b := f.mustCreateCard(s.T(), s.ctx, "b", "user-1")
		gotA, gotB, err := f.svc.RemoveCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)
		s.Empty(gotA.LinkedFeedbackIDs)
		s.Empty(gotB.LinkedFeedbackIDs)
	})
}

func (s *GraphEngineSuite) TestMoveCard() {
	f := s.newFixture(nil)
	card := f.mustCreateCard(s.T(), s.ctx, "card", "user-1")

	moved, err := f.svc.MoveCard(s.ctx, card.ID, f.board.Columns[1].ID)
	require.NoError(s.T(), err)
	s.Equal(f.board.Columns[1].ID, moved.ColumnID)
	s.NotNil(moved.UpdatedAt)

	_, err = f.svc.MoveCard(s.ctx, card.ID, id.NewColumnID())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *GraphEngineSuite) TestUpdateCardContent() {
	f := s.newFixture(nil)
	card := f.mustCreateCard(s.T(), s.ctx, "original", "user-1")

	s.Run("author may edit", func() {
		updated, err := f.svc.UpdateCardContent(s.ctx, card.ID, "edited", "user-1")
		require.NoError(s.T(), err)
		s.Equal("edited", updated.Content)
	})

	s.Run("board admin may edit", func() {
		updated, err := f.svc.UpdateCardContent(s.ctx, card.ID, "admin edit", "creator-hash")
		require.NoError(s.T(), err)
		s.Equal("admin edit", updated.Content)
	})

	s.Run("strangers may not", func() {
		_, err := f.svc.UpdateCardContent(s.ctx, card.ID, "nope", "user-2")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *GraphEngineSuite) TestDeleteCard() {
	s.Run("orphans children and resets their aggregation", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		f.react(s.T(), s.ctx, child.ID, "user-a")
		_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)

		require.NoError(s.T(), f.svc.DeleteCard(s.ctx, parent.ID, "user-1"))

		got := f.reload(s.T(), s.ctx, child.ID)
		s.Nil(got.ParentCardID)
		s.Equal(1, got.DirectReactionCount)
		s.Equal(1, got.AggregatedReactionCount)
	})

	s.Run("deleting a child recomputes the parent", func() {
		f := s.newFixture(nil)
		parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
		child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
		f.react(s.T(), s.ctx, child.ID, "user-a")
		_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
		require.NoError(s.T(), err)
		s.Equal(1, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)

		require.NoError(s.T(), f.svc.DeleteCard(s.ctx, child.ID, "user-1"))
		s.Equal(0, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)
	})

	s.Run("removes the card from cross-link partners", func() {
		f := s.newFixture(nil)
		a := f.mustCreateCard(s.T(), s.ctx, "a", "user-1")
		b := f.mustCreateCard(s.T(), s.ctx, "b", "user-1")
		_, _, err := f.svc.AddCrossLink(s.ctx, a.ID, b.ID)
		require.NoError(s.T(), err)

		require.NoError(s.T(), f.svc.DeleteCard(s.ctx, a.ID, "user-1"))
		s.Empty(f.reload(s.T(), s.ctx, b.ID).LinkedFeedbackIDs)
	})

	s.Run("deletes the card's reactions", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx, "card", "user-1")
		f.react(s.T(), s.ctx, card.ID, "user-a")

		require.NoError(s.T(), f.svc.DeleteCard(s.ctx, card.ID, "user-1"))
		reactions, err := f.reactions.ListByCard(s.ctx, card.ID)
		require.NoError(s.T(), err)
		s.Empty(reactions)
	})

	s.Run("only the author or an admin may delete", func() {
		f := s.newFixture(nil)
		card := f.mustCreateCard(s.T(), s.ctx, "card", "user-1")
		err := f.svc.DeleteCard(s.ctx, card.ID, "user-2")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func (s *GraphEngineSuite) TestApplyReactionDelta() {
	f := s.newFixture(nil)
	parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
	child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
	_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
	require.NoError(s.T(), err)

	got, err := f.svc.ApplyReactionDelta(s.ctx, child.ID, 1)
	require.NoError(s.T(), err)
	s.Equal(1, got.DirectReactionCount)
	s.Equal(1, got.AggregatedReactionCount)
	s.Equal(1, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)

	got, err = f.svc.ApplyReactionDelta(s.ctx, child.ID, -1)
	require.NoError(s.T(), err)
	s.Equal(0, got.DirectReactionCount)
	s.Equal(0, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)
}

func (s *GraphEngineSuite) TestRecomputeBoard() {
	f := s.newFixture(nil)
	parent := f.mustCreateCard(s.T(), s.ctx, "parent", "user-1")
	child := f.mustCreateCard(s.T(), s.ctx, "child", "user-1")
	_, err := f.svc.SetParentLink(s.ctx, child.ID, parent.ID)
	require.NoError(s.T(), err)

	// Skew the counts behind the engine's back, then rebuild.
	_, err = f.cards.AdjustDirectCount(s.ctx, child.ID, 3)
	require.NoError(s.T(), err)
	require.NoError(s.T(), f.svc.RecomputeBoard(s.ctx, f.board.ID))

	s.Equal(3, f.reload(s.T(), s.ctx, parent.ID).AggregatedReactionCount)
	s.Equal(3, f.reload(s.T(), s.ctx, child.ID).AggregatedReactionCount)
}
