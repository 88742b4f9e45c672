package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
)

func TestNewCard(t *testing.T) {
	boardID := id.NewBoardID()
	columnID := id.NewColumnID()
	now := time.Now()

	t.Run("valid card", func(t *testing.T) {
		card, err := NewCard(id.NewCardID(), boardID, columnID, "content", CardTypeFeedback, false, "hash", "Alice", now)
		require.NoError(t, err)
		assert.Equal(t, "Alice", card.CreatedByAlias)
		assert.Zero(t, card.DirectReactionCount)
		assert.Nil(t, card.ParentCardID)
	})

	t.Run("anonymous card drops the alias", func(t *testing.T) {
		card, err := NewCard(id.NewCardID(), boardID, columnID, "content", CardTypeFeedback, true, "hash", "Alice", now)
		require.NoError(t, err)
		assert.Empty(t, card.CreatedByAlias)
		assert.Equal(t, "hash", card.CreatedByHash)
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := NewCard(id.NewCardID(), boardID, columnID, "", CardTypeFeedback, false, "hash", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("content too long", func(t *testing.T) {
		_, err := NewCard(id.NewCardID(), boardID, columnID, strings.Repeat("x", 5001), CardTypeFeedback, false, "hash", "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestParseCardType(t *testing.T) {
	for _, valid := range []string{"feedback", "action"} {
		got, err := ParseCardType(valid)
		require.NoError(t, err)
		assert.Equal(t, CardType(valid), got)
	}
	_, err := ParseCardType("note")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestCardLinks(t *testing.T) {
	card := &Card{ID: id.NewCardID()}
	other := id.NewCardID()

	assert.False(t, card.HasLink(other))
	card.AddLink(other)
	assert.True(t, card.HasLink(other))

	// AddLink is idempotent.
	card.AddLink(other)
	assert.Len(t, card.LinkedFeedbackIDs, 1)

	card.RemoveLink(other)
	assert.False(t, card.HasLink(other))

	// RemoveLink of an absent edge is a no-op.
	card.RemoveLink(other)
	assert.Empty(t, card.LinkedFeedbackIDs)
}

func TestIsChildOf(t *testing.T) {
	parentID := id.NewCardID()
	card := &Card{ID: id.NewCardID()}
	assert.False(t, card.IsChildOf(parentID))

	card.ParentCardID = &parentID
	assert.True(t, card.IsChildOf(parentID))
	assert.False(t, card.IsChildOf(id.NewCardID()))
}
