package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"tenet/store"
)

type ScoreService struct{}

func NewScoreService() *ScoreService {
	return &ScoreService{}
}

// SetScore upserts the caller's agreement score for a post and recomputes
// the post's community average from every stored score. The recompute is
// read-all-then-write-one: concurrent callers on the same post may race on
// the final average write and the last recompute wins. The next read still
// reflects at least one of the concurrent writes.
func (s *ScoreService) SetScore(ctx context.Context, postID string, userID int64, score int) (int64, error) {
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	if score < 0 || score > 100 {
		return 0, ErrScoreRange
	}

	uid := strconv.FormatInt(userID, 10)
	scorePath := fmt.Sprintf("posts/%s/agreements/%s", postID, uid)
	if err := store.Docs.Set(ctx, scorePath, store.Doc{"score": int64(score), "userId": userID}, true); err != nil {
		return 0, fmt.Errorf("failed to store agreement score: %w", err)
	}

	avg, err := s.recomputeAverage(ctx, postID)
	if err != nil {
		return 0, err
	}

	if err := store.Docs.Update(ctx, "posts/"+postID, store.Doc{"avgAgreementScore": avg}); err != nil {
		return 0, fmt.Errorf("failed to update average score: %w", err)
	}
	return avg, nil
}

func (s *ScoreService) recomputeAverage(ctx context.Context, postID string) (int64, error) {
	docs, err := store.Docs.List(ctx, fmt.Sprintf("posts/%s/agreements", postID), "score", false, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read agreement scores: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	var sum int64
	for _, doc := range docs {
		sum += doc.Int("score")
	}
	return int64(math.Round(float64(sum) / float64(len(docs)))), nil
}
