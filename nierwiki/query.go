package nierwiki

import (
	"context"
	"fmt"

	"github.com/hazyhaar/automata/internal/entity"
)

// Characters lists characters matching f.
func (s *Service) Characters(ctx context.Context, f CharacterFilter) ([]CharacterRow, error) {
	if err := normCategory(&f.QuestCategory); err != nil {
		return nil, err
	}
	return s.store.Characters(ctx, f)
}

// Locations lists locations matching f.
func (s *Service) Locations(ctx context.Context, f LocationFilter) ([]LocationRow, error) {
	return s.store.Locations(ctx, f)
}

// Quests lists quests matching f.
func (s *Service) Quests(ctx context.Context, f QuestFilter) ([]QuestRow, error) {
	if err := normCategory(&f.Category); err != nil {
		return nil, err
	}
	return s.store.Quests(ctx, f)
}

// Catchables lists catchables matching f.
func (s *Service) Catchables(ctx context.Context, f CatchableFilter) ([]CatchableRow, error) {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return nil, fmt.Errorf("%w: negative price %d", ErrInvalidInput, *f.MinPrice)
	}
	return s.store.Catchables(ctx, f)
}

// Stat computes one aggregate.
func (s *Service) Stat(ctx context.Context, kind StatKind) ([]StatRow, error) {
	return s.store.Stat(ctx, kind)
}

// Images returns the stored pictures of characters or catchables whose
// name contains nameLike.
func (s *Service) Images(ctx context.Context, kind Kind, nameLike string) ([]Image, error) {
	return s.store.Images(ctx, kind, nameLike)
}

// Names lists every name of kind.
func (s *Service) Names(ctx context.Context, kind Kind) ([]string, error) {
	return s.store.Names(ctx, kind)
}

// Counts returns the row count of every table.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.store.Counts(ctx)
}

// normCategory lower-cases a category filter in place.
func normCategory(c *entity.Category) error {
	if *c == "" {
		return nil
	}
	parsed, ok := entity.ParseCategory(string(*c))
	if !ok {
		return fmt.Errorf("%w: category %q (want main or side)", ErrInvalidInput, string(*c))
	}
	*c = parsed
	return nil
}
