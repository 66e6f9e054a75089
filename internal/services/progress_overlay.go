package services

import (
	"sync"
	"time"

	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/practice"
	"github.com/vytor/openingdrill/internal/progress"
)

type pendingSession struct {
	accuracy  float64
	completed bool
	at        time.Time
}

type pendingRating struct {
	rating models.Rating
	at     time.Time
}

// progressOverlay remembers sessions and ratings handed to the recorder until
// the store reflects them, so reads never see progress older than what the
// learner just did. An entry is dropped once the stored record carries a
// timestamp at or after it.
type progressOverlay struct {
	next practice.Recorder

	mu       sync.Mutex
	sessions map[string][]pendingSession
	ratings  map[string][]pendingRating
}

func newProgressOverlay(next practice.Recorder) *progressOverlay {
	return &progressOverlay{
		next:     next,
		sessions: make(map[string][]pendingSession),
		ratings:  make(map[string][]pendingRating),
	}
}

func (o *progressOverlay) RecordSession(s practice.Summary) {
	o.mu.Lock()
	o.sessions[s.Opening.ID] = append(o.sessions[s.Opening.ID], pendingSession{
		accuracy:  s.Accuracy,
		completed: s.Outcome == practice.Completed,
		at:        s.FinishedAt,
	})
	o.mu.Unlock()
	o.next.RecordSession(s)
}

func (o *progressOverlay) RecordRating(openingID string, rating models.Rating, at time.Time) {
	o.mu.Lock()
	o.ratings[openingID] = append(o.ratings[openingID], pendingRating{rating: rating, at: at})
	o.mu.Unlock()
	o.next.RecordRating(openingID, rating, at)
}

// apply folds the still-pending updates for rec's opening into rec.
func (o *progressOverlay) apply(rec models.ProgressRecord) models.ProgressRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.applyLocked(rec)
}

func (o *progressOverlay) applyLocked(rec models.ProgressRecord) models.ProgressRecord {
	id := rec.OpeningID

	var sessions []pendingSession
	for _, p := range o.sessions[id] {
		if rec.LastPracticedAt != nil && !p.at.After(*rec.LastPracticedAt) {
			continue
		}
		sessions = append(sessions, p)
	}
	for _, p := range sessions {
		rec = progress.ApplySession(rec, p.accuracy, p.completed, p.at)
	}
	setPending(o.sessions, id, sessions)

	var ratings []pendingRating
	for _, p := range o.ratings[id] {
		if rec.LastRatedAt != nil && !p.at.After(*rec.LastRatedAt) {
			continue
		}
		ratings = append(ratings, p)
	}
	for _, p := range ratings {
		rec = progress.ApplyRating(rec, p.rating, p.at)
	}
	setPending(o.ratings, id, ratings)
	return rec
}

func setPending[T any](m map[string][]T, id string, pending []T) {
	if len(pending) == 0 {
		delete(m, id)
		return
	}
	m[id] = pending
}

// applyAll returns stored merged with every opening that has pending updates.
func (o *progressOverlay) applyAll(stored map[string]models.ProgressRecord) map[string]models.ProgressRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]models.ProgressRecord, len(stored)+len(o.sessions))
	for id, rec := range stored {
		out[id] = rec
	}
	ids := make(map[string]struct{}, len(o.sessions)+len(o.ratings))
	for id := range o.sessions {
		ids[id] = struct{}{}
	}
	for id := range o.ratings {
		ids[id] = struct{}{}
	}
	for id := range ids {
		rec, ok := out[id]
		if !ok {
			rec = models.ProgressRecord{OpeningID: id}
		}
		out[id] = o.applyLocked(rec)
	}
	return out
}

// forget drops pending updates after an explicit progress reset.
func (o *progressOverlay) forget(openingID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.sessions, openingID)
	delete(o.ratings, openingID)
}
