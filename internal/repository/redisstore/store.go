// Package redisstore keeps progress and session history in Redis as JSON blobs.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/vytor/openingdrill/internal/logger"
	"github.com/vytor/openingdrill/internal/models"
	"github.com/vytor/openingdrill/internal/repository"
)

const (
	defaultPrefix       = "drill"
	defaultHistoryLimit = 50
)

type Store struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client) *Store { return &Store{rdb: rdb, prefix: defaultPrefix} }

// WithPrefix namespaces every key under p.
func (s *Store) WithPrefix(p string) *Store {
	return &Store{rdb: s.rdb, prefix: strings.TrimSpace(p)}
}

func (s *Store) keyProgress() string                 { return s.prefix + ":progress" }
func (s *Store) keySessions() string                 { return s.prefix + ":sessions" }
func (s *Store) keyTimeline() string                 { return s.prefix + ":history" }
func (s *Store) keyOpeningTimeline(id string) string { return s.keyTimeline() + ":opening:" + id }

// Progress returns the ProgressRepository view of the store.
func (s *Store) Progress() repository.ProgressRepository { return progressStore{s} }

// History returns the SessionHistoryRepository view of the store.
func (s *Store) History() repository.SessionHistoryRepository { return historyStore{s} }

type progressStore struct{ s *Store }

func (p progressStore) Get(ctx context.Context, openingID string) (*models.ProgressRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_redis")
	raw, err := p.s.rdb.HGet(ctx, p.s.keyProgress(), openingID).Bytes()
	if errors.Is(err, redis.Nil) {
		log.Debug("no progress for opening_id=%s", openingID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get progress: %v", err)
		return nil, err
	}
	var rec models.ProgressRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (p progressStore) Put(ctx context.Context, rec models.ProgressRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).WithPrefix("progress_redis").Debug("saving progress: opening_id=%s", rec.OpeningID)
	return p.s.rdb.HSet(ctx, p.s.keyProgress(), rec.OpeningID, raw).Err()
}

func (p progressStore) All(ctx context.Context) (map[string]models.ProgressRecord, error) {
	entries, err := p.s.rdb.HGetAll(ctx, p.s.keyProgress()).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.ProgressRecord, len(entries))
	for id, raw := range entries {
		var rec models.ProgressRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		out[id] = rec
	}
	return out, nil
}

func (p progressStore) Reset(ctx context.Context, openingID string) error {
	logger.FromContext(ctx).WithPrefix("progress_redis").Info("resetting progress: opening_id=%s", openingID)
	return p.s.rdb.HDel(ctx, p.s.keyProgress(), openingID).Err()
}

type historyStore struct{ s *Store }

// errDuplicateSession aborts an Append whose id is already in the hash.
var errDuplicateSession = errors.New("redisstore: session already recorded")

const appendRetries = 3

// Append writes the record and both timeline entries in one MULTI/EXEC, so a
// failure leaves nothing behind and the append can be retried.
func (h historyStore) Append(ctx context.Context, rec models.SessionRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	score := float64(rec.FinishedAt.UnixMilli())
	sessions := h.s.keySessions()

	txf := func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, sessions, rec.ID).Result()
		if err != nil {
			return err
		}
		if exists {
			return errDuplicateSession
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, sessions, rec.ID, raw)
			pipe.ZAdd(ctx, h.s.keyTimeline(), redis.Z{Score: score, Member: rec.ID})
			pipe.ZAdd(ctx, h.s.keyOpeningTimeline(rec.OpeningID), redis.Z{Score: score, Member: rec.ID})
			return nil
		})
		return err
	}

	for i := 0; i < appendRetries; i++ {
		err = h.s.rdb.Watch(ctx, txf, sessions)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		logger.FromContext(ctx).WithPrefix("history_redis").Debug("concurrent write on %s, retrying append of %s", sessions, rec.ID)
	}
	if errors.Is(err, errDuplicateSession) {
		return fmt.Errorf("%w: %s", errDuplicateSession, rec.ID)
	}
	return err
}

func (h historyStore) List(ctx context.Context, filter models.HistoryFilter) ([]models.SessionRecord, error) {
	key := h.s.keyTimeline()
	if filter.OpeningID != "" {
		key = h.s.keyOpeningTimeline(filter.OpeningID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	ids, err := h.s.rdb.ZRevRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	raws, err := h.s.rdb.HMGet(ctx, h.s.keySessions(), ids...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.SessionRecord, 0, len(raws))
	for _, v := range raws {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec models.SessionRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
