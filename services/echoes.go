package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"tenet/store"
)

type EchoService struct{}

func NewEchoService() *EchoService {
	return &EchoService{}
}

// ToggleEcho flips the caller's echo on a post and keeps echoCount in step
// with the membership set. The counter delta always goes through the
// store's atomic increment; if the counter write fails the membership
// change is compensated so the two cannot observably diverge. Concurrent
// toggles by the same user on the same post are not serialized: both may
// read the same membership state and apply the same delta.
func (e *EchoService) ToggleEcho(ctx context.Context, postID string, userID int64) (bool, error) {
	if userID == 0 {
		return false, ErrUnauthenticated
	}

	uid := strconv.FormatInt(userID, 10)
	echoPath := fmt.Sprintf("posts/%s/echoes/%s", postID, uid)
	postPath := "posts/" + postID

	_, err := store.Docs.Get(ctx, echoPath)
	switch {
	case err == nil:
		if err := store.Docs.Delete(ctx, echoPath); err != nil {
			return true, fmt.Errorf("failed to remove echo: %w", err)
		}
		if err := store.Docs.Update(ctx, postPath, store.Doc{"echoCount": store.Increment(-1)}); err != nil {
			// Put the membership record back so count and set stay consistent.
			if compErr := store.Docs.Set(ctx, echoPath, store.Doc{"echoed": true}, false); compErr != nil {
				log.Printf("echo compensation failed for %s: %v", echoPath, compErr)
			}
			return true, fmt.Errorf("failed to decrement echo count: %w", err)
		}
		return false, nil

	case errors.Is(err, store.ErrNotFound):
		if err := store.Docs.Set(ctx, echoPath, store.Doc{"echoed": true}, false); err != nil {
			return false, fmt.Errorf("failed to store echo: %w", err)
		}
		if err := store.Docs.Update(ctx, postPath, store.Doc{"echoCount": store.Increment(1)}); err != nil {
			if compErr := store.Docs.Delete(ctx, echoPath); compErr != nil {
				log.Printf("echo compensation failed for %s: %v", echoPath, compErr)
			}
			return false, fmt.Errorf("failed to increment echo count: %w", err)
		}
		return true, nil

	default:
		return false, fmt.Errorf("failed to check echo state: %w", err)
	}
}
