package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tenet/models"
	"tenet/store"
)

type ReplyService struct{}

func NewReplyService() *ReplyService {
	return &ReplyService{}
}

// SubmitReply stores the caller's reply under the post. The reply document
// is keyed by the caller's user id, so a second submit from the same user
// replaces the earlier reply instead of duplicating it; replyCount is only
// incremented on the first write.
func (r *ReplyService) SubmitReply(ctx context.Context, postID string, userID int64, authorHandle, text string) error {
	if userID == 0 {
		return ErrUnauthenticated
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ErrTooShort
	}
	if err := ValidateText(trimmed, MaxContentLength); err != nil {
		return err
	}

	uid := strconv.FormatInt(userID, 10)
	replyPath := fmt.Sprintf("posts/%s/replies/%s", postID, uid)

	_, err := store.Docs.Get(ctx, replyPath)
	firstReply := errors.Is(err, store.ErrNotFound)
	if err != nil && !firstReply {
		return fmt.Errorf("failed to check existing reply: %w", err)
	}

	fields := store.Doc{
		"userId":       userID,
		"replyText":    trimmed,
		"authorHandle": authorHandle,
		"createdAt":    store.ServerTimestamp(),
	}
	if err := store.Docs.Set(ctx, replyPath, fields, false); err != nil {
		return fmt.Errorf("failed to store reply: %w", err)
	}

	if firstReply {
		if err := store.Docs.Update(ctx, "posts/"+postID, store.Doc{"replyCount": store.Increment(1)}); err != nil {
			return fmt.Errorf("failed to increment reply count: %w", err)
		}
	}
	return nil
}

// ListReplies returns a post's replies ordered by creation time, oldest
// first. Always a fresh read.
func (r *ReplyService) ListReplies(ctx context.Context, postID string) ([]models.Reply, error) {
	docs, err := store.Docs.List(ctx, fmt.Sprintf("posts/%s/replies", postID), "createdAt", false, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	replies := make([]models.Reply, 0, len(docs))
	for _, doc := range docs {
		replies = append(replies, models.ReplyFromDoc(doc))
	}
	return replies, nil
}
