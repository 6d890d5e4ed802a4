package nierwiki

import (
	"context"

	"github.com/hazyhaar/automata/kit"
)

// statRequest names one stat by kind or menu position.
type statRequest struct {
	Stat string `json:"stat"`
}

type statResponse struct {
	Stat  StatKind  `json:"stat"`
	Label string    `json:"label"`
	Rows  []StatRow `json:"rows"`
}

type countsRequest struct{}

type countsResponse struct {
	Counts
	LastRun *Run `json:"last_run,omitempty"`
}

// endpoints are shared by the HTTP and MCP surfaces. Requests are pointers
// to the filter types.
type endpoints struct {
	characters kit.Endpoint
	locations  kit.Endpoint
	quests     kit.Endpoint
	catchables kit.Endpoint
	stats      kit.Endpoint
	counts     kit.Endpoint
}

func (s *Service) endpoints() endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(s.logger, name))(ep)
	}
	return endpoints{
		characters: wrap("characters", func(ctx context.Context, req any) (any, error) {
			return orEmpty(s.Characters(ctx, *req.(*CharacterFilter)))
		}),
		locations: wrap("locations", func(ctx context.Context, req any) (any, error) {
			return orEmpty(s.Locations(ctx, *req.(*LocationFilter)))
		}),
		quests: wrap("quests", func(ctx context.Context, req any) (any, error) {
			return orEmpty(s.Quests(ctx, *req.(*QuestFilter)))
		}),
		catchables: wrap("catchables", func(ctx context.Context, req any) (any, error) {
			return orEmpty(s.Catchables(ctx, *req.(*CatchableFilter)))
		}),
		stats: wrap("stats", func(ctx context.Context, req any) (any, error) {
			kind, err := ParseStatKind(req.(*statRequest).Stat)
			if err != nil {
				return nil, err
			}
			rows, err := orEmpty(s.Stat(ctx, kind))
			if err != nil {
				return nil, err
			}
			return statResponse{Stat: kind, Label: kind.Label(), Rows: rows}, nil
		}),
		counts: wrap("counts", func(ctx context.Context, _ any) (any, error) {
			c, err := s.Counts(ctx)
			if err != nil {
				return nil, err
			}
			run, err := s.LastRun(ctx)
			if err != nil {
				return nil, err
			}
			return countsResponse{Counts: c, LastRun: run}, nil
		}),
	}
}

// orEmpty turns a nil result into an empty slice so JSON shows [].
func orEmpty[T any](v []T, err error) ([]T, error) {
	if v == nil && err == nil {
		v = []T{}
	}
	return v, err
}
