package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/openingdrill/internal/models"
)

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	rec, err := s.PracticeService.GetProgress(r.Context(), chi.URLParam(r, "openingID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if rec.RatingHistory == nil {
		rec.RatingHistory = []models.RatingEntry{}
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	if err := s.PracticeService.ResetProgress(r.Context(), chi.URLParam(r, "openingID")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHistory lists finished sessions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		handleError(w, r, err)
		return
	}
	filter := models.HistoryFilter{
		OpeningID: r.URL.Query().Get("opening_id"),
		Limit:     limit,
	}
	records, err := s.PracticeService.History(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if records == nil {
		records = []models.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
