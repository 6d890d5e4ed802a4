package nierwiki

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/automata/internal/entity"
	"github.com/hazyhaar/automata/kit"
	"github.com/hazyhaar/automata/shield"
)

// Handler returns the read-only JSON API with its middleware stack.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	for _, mw := range shield.APIStack(s.logger) {
		r.Use(mw)
	}
	s.RegisterHTTP(r)
	return r
}

// RegisterHTTP registers the API routes on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	ep := s.endpoints()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/characters", s.serve(ep.characters, decodeCharacterFilter))
	r.Get("/api/locations", s.serve(ep.locations, decodeLocationFilter))
	r.Get("/api/quests", s.serve(ep.quests, decodeQuestFilter))
	r.Get("/api/catchables", s.serve(ep.catchables, decodeCatchableFilter))
	r.Get("/api/stats/{stat}", s.serve(ep.stats, func(r *http.Request) (any, error) {
		return &statRequest{Stat: chi.URLParam(r, "stat")}, nil
	}))
	r.Get("/api/counts", s.serve(ep.counts, func(*http.Request) (any, error) {
		return &countsRequest{}, nil
	}))
	r.Get("/api/images/{kind}/{name}", s.handleImage)
}

func (s *Service) serve(ep kit.Endpoint, decode func(*http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decode(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		resp, err := ep(r.Context(), req)
		if err != nil {
			if isInput(err) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			shield.GetLogger(r.Context()).Error("api: query failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleImage serves the bytes of the first image whose owner name contains {name}.
// GET /api/images/{kind}/{name}
func (s *Service) handleImage(w http.ResponseWriter, r *http.Request) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	imgs, err := s.Images(r.Context(), kind, chi.URLParam(r, "name"))
	if err != nil {
		if isInput(err) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(imgs) == 0 || len(imgs[0].Data) == 0 {
		writeError(w, http.StatusNotFound, fmt.Errorf("no image for %q", chi.URLParam(r, "name")))
		return
	}
	img := imgs[0]
	w.Header().Set("Content-Type", http.DetectContentType(img.Data))
	w.Header().Set("X-Image-Name", img.Name)
	w.Write(img.Data)
}

func decodeCharacterFilter(r *http.Request) (any, error) {
	q := r.URL.Query()
	return &CharacterFilter{
		NameLike:      q.Get("name"),
		QuestCategory: entity.Category(q.Get("quest_category")),
	}, nil
}

func decodeLocationFilter(r *http.Request) (any, error) {
	q := r.URL.Query()
	return &LocationFilter{
		NameLike:  q.Get("name"),
		Quest:     q.Get("quest"),
		Catchable: q.Get("catchable"),
	}, nil
}

func decodeQuestFilter(r *http.Request) (any, error) {
	q := r.URL.Query()
	f := &QuestFilter{
		NameLike:     q.Get("name"),
		GiverLike:    q.Get("giver"),
		LocationLike: q.Get("location"),
		RewardLike:   q.Get("reward"),
		Category:     entity.Category(q.Get("category")),
	}
	var err error
	if f.NoGiver, err = queryBool(q, "no_giver"); err != nil {
		return nil, err
	}
	if f.NoReward, err = queryBool(q, "no_reward"); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeCatchableFilter(r *http.Request) (any, error) {
	q := r.URL.Query()
	f := &CatchableFilter{
		NameLike:     q.Get("name"),
		LocationLike: q.Get("location"),
	}
	if v := q.Get("min_price"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: min_price %q is not an integer", ErrInvalidInput, v)
		}
		f.MinPrice = &n
	}
	return f, nil
}

func queryBool(q url.Values, key string) (bool, error) {
	v := q.Get(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s %q is not a boolean", ErrInvalidInput, key, v)
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
