package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	boardservice "retroboard/internal/board/service"
	cardmodels "retroboard/internal/card/models"
	reactionmodels "retroboard/internal/reaction/models"
	sessionmodels "retroboard/internal/session/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/requestcontext"
)

const (
	maxSeedUsers     = 200
	maxSeedCards     = 1000
	maxSeedReactions = 5000

	// Seeded reactions all use one type so requesting more reactions than
	// there are (card, user) pairs visibly collapses under the uniqueness
	// constraint instead of silently spreading across types.
	seedReactionType = "thumbsup"
)

// SeedParams shapes a test data seed.
type SeedParams struct {
	NumUsers            int
	NumCards            int
	NumActionCards      int
	NumReactions        int
	CreateRelationships bool
}

// Validate bounds the seed so a mistyped request cannot flood the store.
func (p SeedParams) Validate() error {
	if p.NumUsers < 0 || p.NumCards < 0 || p.NumActionCards < 0 || p.NumReactions < 0 {
		return dErrors.New(dErrors.CodeValidation, "seed counts must be non-negative")
	}
	if p.NumUsers > maxSeedUsers {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("num_users must be %d or less", maxSeedUsers))
	}
	if p.NumCards > maxSeedCards {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("num_cards must be %d or less", maxSeedCards))
	}
	if p.NumReactions > maxSeedReactions {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("num_reactions must be %d or less", maxSeedReactions))
	}
	if p.NumActionCards > p.NumCards {
		return dErrors.New(dErrors.CodeValidation, "num_action_cards cannot exceed num_cards")
	}
	if p.NumCards > 0 && p.NumUsers == 0 {
		return dErrors.New(dErrors.CodeValidation, "cards need at least one seeded user as author")
	}
	if p.NumReactions > 0 && (p.NumUsers == 0 || p.NumCards == 0) {
		return dErrors.New(dErrors.CodeValidation, "reactions need seeded users and cards")
	}
	return nil
}

// SeedResult reports what a seed produced. ReactionsCreated can be lower
// than requested: seeded reactions share one type, so the count is capped by
// distinct (card, user) pairs.
type SeedResult struct {
	UsersCreated        int `json:"users_created"`
	CardsCreated        int `json:"cards_created"`
	ParentGroupsCreated int `json:"parent_groups_created"`
	ReactionsCreated    int `json:"reactions_created"`
}

// SeedTestData populates an active board with generated sessions, cards,
// parent groups, and reactions. Data is bulk-inserted with zeroed counts,
// then direct and aggregated counts are fixed up from the generated
// reactions, so a seeded board satisfies the same aggregation identity as
// an organically grown one.
func (s *Service) SeedTestData(ctx context.Context, boardID id.BoardID, params SeedParams) (*SeedResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	board, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, err
	}

	start := time.Now()
	release, err := s.locks.Lock(ctx, boardID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "board lock interrupted")
	}
	defer release()

	now := requestcontext.Now(ctx)
	result := &SeedResult{}

	sessions := make([]*sessionmodels.UserSession, 0, params.NumUsers)
	for i := 0; i < params.NumUsers; i++ {
		sessions = append(sessions, &sessionmodels.UserSession{
			BoardID:  boardID,
			UserHash: "seed-" + uuid.NewString(),
			Alias:    fmt.Sprintf("Seed User %d", i+1),
			JoinedAt: now,
		})
	}
	if len(sessions) > 0 {
		if err := s.sessions.BulkInsert(ctx, sessions); err != nil {
			return nil, wrapMaintenanceErr(err)
		}
	}
	result.UsersCreated = len(sessions)

	cards := make([]*cardmodels.Card, 0, params.NumCards)
	for i := 0; i < params.NumCards; i++ {
		author := sessions[i%len(sessions)]
		column := board.Columns[i%len(board.Columns)]
		cardType := cardmodels.CardTypeFeedback
		if i < params.NumActionCards {
			cardType = cardmodels.CardTypeAction
		}
		card, err := cardmodels.NewCard(id.NewCardID(), boardID, column.ID,
			fmt.Sprintf("Seed card %d", i+1), cardType, false,
			author.UserHash, author.Alias, now.Add(time.Duration(i)*time.Millisecond))
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	// Groups of three: the first card in each complete triple parents the
	// next two. Leftover cards stay roots.
	if params.CreateRelationships {
		for i := 0; i+2 < len(cards); i += 3 {
			cards[i+1].ParentCardID = &cards[i].ID
			cards[i+2].ParentCardID = &cards[i].ID
			result.ParentGroupsCreated++
		}
	}

	if len(cards) > 0 {
		if err := s.cards.BulkInsert(ctx, cards); err != nil {
			return nil, wrapMaintenanceErr(err)
		}
	}
	result.CardsCreated = len(cards)

	reactions, directCounts := generateReactions(boardID, sessions, cards, params.NumReactions, now)
	if len(reactions) > 0 {
		if err := s.reactions.BulkInsert(ctx, reactions); err != nil {
			return nil, wrapMaintenanceErr(err)
		}
	}
	result.ReactionsCreated = len(reactions)

	if err := s.applyCounts(ctx, cards, directCounts); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncrementSeeded()
		s.metrics.ObserveSeed(start)
	}
	s.logger.InfoContext(ctx, "board seeded",
		"board_id", boardID,
		"users", result.UsersCreated,
		"cards", result.CardsCreated,
		"parent_groups", result.ParentGroupsCreated,
		"reactions", result.ReactionsCreated,
	)
	return result, nil
}

// generateReactions draws random (card, user) pairs until the target count
// is reached or the pair space is exhausted. One type is used throughout, so
// duplicates collapse and the generated set honors the (card, user, type)
// uniqueness constraint by construction.
func generateReactions(boardID id.BoardID, sessions []*sessionmodels.UserSession, cards []*cardmodels.Card, target int, now time.Time) ([]*reactionmodels.Reaction, map[id.CardID]int) {
	directCounts := make(map[id.CardID]int, len(cards))
	if target == 0 || len(sessions) == 0 || len(cards) == 0 {
		return nil, directCounts
	}
	if pairs := len(sessions) * len(cards); target > pairs {
		target = pairs
	}

	type pairKey struct {
		card id.CardID
		user string
	}
	seen := make(map[pairKey]struct{}, target)
	reactions := make([]*reactionmodels.Reaction, 0, target)
	for len(reactions) < target {
		card := cards[rand.IntN(len(cards))]
		user := sessions[rand.IntN(len(sessions))]
		key := pairKey{card: card.ID, user: user.UserHash}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		reactions = append(reactions, &reactionmodels.Reaction{
			ID:        id.NewReactionID(),
			CardID:    card.ID,
			BoardID:   boardID,
			UserHash:  user.UserHash,
			Type:      seedReactionType,
			CreatedAt: now,
		})
		directCounts[card.ID]++
	}
	return reactions, directCounts
}

// applyCounts fixes up direct and aggregated counts after bulk inserts,
// which write zeroes.
func (s *Service) applyCounts(ctx context.Context, cards []*cardmodels.Card, directCounts map[id.CardID]int) error {
	for _, card := range cards {
		if n := directCounts[card.ID]; n > 0 {
			if _, err := s.cards.AdjustDirectCount(ctx, card.ID, n); err != nil {
				return wrapMaintenanceErr(err)
			}
		}
	}
	for _, card := range cards {
		aggregated := directCounts[card.ID]
		for _, other := range cards {
			if other.ParentCardID != nil && *other.ParentCardID == card.ID {
				aggregated += directCounts[other.ID]
			}
		}
		if aggregated == 0 {
			continue
		}
		if err := s.cards.SetAggregatedCount(ctx, card.ID, aggregated); err != nil {
			return wrapMaintenanceErr(err)
		}
	}
	return nil
}
