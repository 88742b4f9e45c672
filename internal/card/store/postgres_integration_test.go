//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	boardmodels "retroboard/internal/board/models"
	boardstore "retroboard/internal/board/store"
	"retroboard/internal/card/models"
	"retroboard/internal/card/store"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
	"retroboard/pkg/testutil/containers"
)

type CardPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	boards   *boardstore.Postgres
	store    *store.Postgres
	board    *boardmodels.Board
}

func TestCardPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CardPostgresSuite))
}

func (s *CardPostgresSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.boards = boardstore.NewPostgres(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *CardPostgresSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *CardPostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx))

	board, err := boardmodels.NewBoard(id.NewBoardID(), "Retro",
		[]boardmodels.Column{{Name: "Went well"}}, nil, nil, "creator", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.boards.Create(ctx, board))
	s.board = board
}

func (s *CardPostgresSuite) newCard(content string) *models.Card {
	card, err := models.NewCard(id.NewCardID(), s.board.ID, s.board.Columns[0].ID,
		content, models.CardTypeFeedback, false, "author", "Alice", time.Now().UTC())
	s.Require().NoError(err)
	return card
}

func (s *CardPostgresSuite) TestCreateAndFind() {
	ctx := context.Background()
	card := s.newCard("persisted")
	s.Require().NoError(s.store.Create(ctx, card))

	got, err := s.store.FindByID(ctx, card.ID)
	s.Require().NoError(err)
	s.Equal(card.Content, got.Content)
	s.Nil(got.ParentCardID)
	s.Empty(got.LinkedFeedbackIDs)
}

func (s *CardPostgresSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewCardID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CardPostgresSuite) TestUpdatePersistsGraphColumns() {
	ctx := context.Background()
	parent := s.newCard("parent")
	child := s.newCard("child")
	linked := s.newCard("linked")
	s.Require().NoError(s.store.Create(ctx, parent))
	s.Require().NoError(s.store.Create(ctx, child))
	s.Require().NoError(s.store.Create(ctx, linked))

	child.ParentCardID = &parent.ID
	s.Require().NoError(s.store.Update(ctx, child))
	parent.AddLink(linked.ID)
	s.Require().NoError(s.store.Update(ctx, parent))

	gotChild, err := s.store.FindByID(ctx, child.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotChild.ParentCardID)
	s.Equal(parent.ID, *gotChild.ParentCardID)

	gotParent, err := s.store.FindByID(ctx, parent.ID)
	s.Require().NoError(err)
	s.True(gotParent.HasLink(linked.ID))

	children, err := s.store.ListChildren(ctx, parent.ID)
	s.Require().NoError(err)
	s.Len(children, 1)
}

func (s *CardPostgresSuite) TestAdjustDirectCountClampsAtZero() {
	ctx := context.Background()
	card := s.newCard("counts")
	s.Require().NoError(s.store.Create(ctx, card))

	got, err := s.store.AdjustDirectCount(ctx, card.ID, 2)
	s.Require().NoError(err)
	s.Equal(2, got.DirectReactionCount)

	got, err = s.store.AdjustDirectCount(ctx, card.ID, -5)
	s.Require().NoError(err)
	s.Equal(0, got.DirectReactionCount)
}

func (s *CardPostgresSuite) TestBulkInsertAndCounts() {
	ctx := context.Background()
	cards := []*models.Card{s.newCard("a"), s.newCard("b"), s.newCard("c")}
	cards[1].ParentCardID = &cards[0].ID
	s.Require().NoError(s.store.BulkInsert(ctx, cards))

	count, err := s.store.CountByBoard(ctx, s.board.ID)
	s.Require().NoError(err)
	s.Equal(3, count)

	authored, err := s.store.CountByBoardAndAuthor(ctx, s.board.ID, "author")
	s.Require().NoError(err)
	s.Equal(3, authored)

	deleted, err := s.store.DeleteByBoard(ctx, s.board.ID)
	s.Require().NoError(err)
	s.Equal(3, deleted)
}
