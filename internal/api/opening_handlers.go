package api

import (
	"net/http"
	"strings"

	"github.com/vytor/openingdrill/internal/errors"
	"github.com/vytor/openingdrill/internal/models"
)

// handleOpenings lists the catalog, optionally filtered by side and difficulty.
func (s *Server) handleOpenings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var side models.Side
	if v := q.Get("side"); v != "" {
		parsed, ok := models.ParseSide(v)
		if !ok {
			handleError(w, r, errors.NewValidationError("side", "must be white or black"))
			return
		}
		side = parsed
	}

	difficulty := models.Difficulty(strings.ToLower(q.Get("difficulty")))
	switch difficulty {
	case "", models.Beginner, models.Intermediate, models.Advanced:
	default:
		handleError(w, r, errors.NewValidationError("difficulty", "must be beginner, intermediate or advanced"))
		return
	}

	openings := s.PracticeService.ListOpenings(r.Context(), side, difficulty)
	if openings == nil {
		openings = []models.Opening{}
	}
	writeJSON(w, http.StatusOK, openings)
}

func (s *Server) handleRecommended(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", 5)
	if err != nil {
		handleError(w, r, err)
		return
	}
	ranked, err := s.PracticeService.Recommend(r.Context(), n)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}
