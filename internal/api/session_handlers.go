package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/openingdrill/internal/errors"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
	"github.com/vytor/openingdrill/internal/services"
)

type startSessionRequest struct {
	OpeningID string `json:"opening_id"`
	Side      string `json:"side"`
}

type moveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type ratingRequest struct {
	Rating string `json:"rating"`
}

// handleStartSession starts a new session, replacing the active one.
// An empty body lets the roulette pick the opening.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var body startSessionRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	req := services.StartRequest{OpeningID: body.OpeningID}
	if body.Side != "" {
		side, ok := models.ParseSide(body.Side)
		if !ok {
			handleError(w, r, errors.NewValidationError("side", "must be white or black"))
			return
		}
		req.Side = side
	}

	view, err := s.PracticeService.StartSession(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.PracticeService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleEndSession discards the session without recording it.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.PracticeService.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitMove(w http.ResponseWriter, r *http.Request) {
	var body moveRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}

	from, to := models.Square(body.From), models.Square(body.To)
	if !from.Valid() {
		handleError(w, r, errors.NewValidationError("from", "must be a square like e2"))
		return
	}
	if !to.Valid() {
		handleError(w, r, errors.NewValidationError("to", "must be a square like e4"))
		return
	}
	promo := models.PieceKind(body.Promotion)
	switch promo {
	case models.NoPiece, models.Queen, models.Rook, models.Bishop, models.Knight:
	default:
		handleError(w, r, errors.NewValidationError("promotion", "must be q, r, b or n"))
		return
	}

	resp, err := s.PracticeService.SubmitMove(r.Context(), chi.URLParam(r, "id"), from, to, promo)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInteraction marks that the learner touched the board after the
// session ended, which opens the rating prompt.
func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	view, err := s.PracticeService.AcknowledgeInteraction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleRequestAction(w http.ResponseWriter, r *http.Request) {
	var body actionRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	action, ok := practice.ParseAction(body.Action)
	if !ok {
		handleError(w, r, errors.NewValidationError("action", "must be next_opening, browse or retry"))
		return
	}

	resp, err := s.PracticeService.RequestAction(r.Context(), chi.URLParam(r, "id"), action)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Deferred {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleSubmitRating(w http.ResponseWriter, r *http.Request) {
	var body ratingRequest
	if err := decodeJSON(r, &body); err != nil {
		handleError(w, r, err)
		return
	}
	rating, ok := models.ParseRating(body.Rating)
	if !ok {
		handleError(w, r, errors.NewValidationError("rating", "must be hard, good or easy"))
		return
	}

	resp, err := s.PracticeService.SubmitRating(r.Context(), chi.URLParam(r, "id"), rating)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSkipRating(w http.ResponseWriter, r *http.Request) {
	resp, err := s.PracticeService.SkipRating(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.PracticeService.ResetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
