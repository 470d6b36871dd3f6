package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"tenet/models"
	"tenet/store"
)

const (
	FEED_CACHE_TTL  = 24 * time.Hour
	MAX_FEED_SIZE   = 1000
	FEED_CACHE_KEY  = "public_feed"
	POST_KEY_PREFIX = "post:"
)

// Subcollections that exist only in reference to a post; cascade-deleted
// with it.
var postSubcollections = []string{"agreements", "echoes", "replies"}

type NewPostInput struct {
	Content      string
	SourceTitle  string
	SourceURL    string
	Visibility   models.Visibility
	AuthorUID    int64
	AuthorDID    string
	AuthorHandle string
}

type PostService struct{}

func NewPostService() *PostService {
	return &PostService{}
}

// CreatePost validates, trims and persists a new post with zeroed
// aggregates and a server-assigned creation time. Validation runs inside
// the operation so no call site can skip it.
func (ps *PostService) CreatePost(ctx context.Context, input NewPostInput) (string, error) {
	if input.AuthorUID == 0 {
		return "", ErrUnauthenticated
	}
	if err := ValidatePost(input.Content, input.SourceTitle, input.SourceURL); err != nil {
		return "", err
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityPublic
	}

	fields := store.Doc{
		"content":           strings.TrimSpace(input.Content),
		"authorUid":         input.AuthorUID,
		"authorDid":         input.AuthorDID,
		"authorHandle":      input.AuthorHandle,
		"createdAt":         store.ServerTimestamp(),
		"echoCount":         int64(0),
		"replyCount":        int64(0),
		"avgAgreementScore": int64(0),
		"visibility":        string(visibility),
	}
	if title := strings.TrimSpace(input.SourceTitle); title != "" {
		fields["sourceTitle"] = title
	}
	if rawURL := strings.TrimSpace(input.SourceURL); rawURL != "" {
		fields["sourceURL"] = NormalizeURL(rawURL)
	}

	postID, err := store.Docs.Create(ctx, "posts", fields)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}

	// Cache and push are best-effort; the post is already durable.
	if post, err := ps.GetPost(ctx, postID); err == nil {
		go ps.addPostToFeedCache(context.Background(), post)
		if err := PublishFeedEvent(context.Background(), FeedEvent{
			PostID:       post.ID,
			AuthorUID:    post.AuthorUID,
			AuthorHandle: post.AuthorHandle,
			Content:      post.Content,
			CreatedAt:    post.CreatedAt,
		}); err != nil {
			log.Printf("feed event publish failed for post %s: %v", post.ID, err)
		}
	}

	return postID, nil
}

// GetPost reads a single post, preferring the Redis cache.
func (ps *PostService) GetPost(ctx context.Context, postID string) (models.Post, error) {
	if cached, err := ps.cachedPost(ctx, postID); err == nil {
		return cached, nil
	}

	doc, err := store.Docs.Get(ctx, "posts/"+postID)
	if err != nil {
		return models.Post{}, err
	}
	post := models.PostFromDoc(doc)
	go ps.cachePost(context.Background(), post)
	return post, nil
}

// ListFeed returns the newest public posts, newest first.
func (ps *PostService) ListFeed(ctx context.Context, limit int) (*models.FeedResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	posts, err := ps.feedFromCache(ctx, limit)
	hasMore := len(posts) == limit
	if err != nil || len(posts) == 0 {
		posts, hasMore, err = ps.feedFromStore(ctx, limit)
		if err != nil {
			return nil, err
		}
		go ps.cacheFeed(context.Background(), posts)
	}

	return &models.FeedResponse{
		Posts:   posts,
		HasMore: hasMore,
	}, nil
}

// feedFromStore filters visibility before cutting the page, so a stretch
// of private posts cannot shorten a page while older public posts remain.
func (ps *PostService) feedFromStore(ctx context.Context, limit int) ([]models.Post, bool, error) {
	docs, err := store.Docs.List(ctx, "posts", "createdAt", true, MAX_FEED_SIZE)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read feed: %w", err)
	}

	posts := make([]models.Post, 0, limit)
	for _, doc := range docs {
		post := models.PostFromDoc(doc)
		if post.Visibility != models.VisibilityPublic {
			continue
		}
		if len(posts) == limit {
			return posts, true, nil
		}
		posts = append(posts, post)
	}
	return posts, false, nil
}

// DeletePost removes a post together with every dependent score, echo and
// reply. Subcollection deletions fan out concurrently; the post document
// itself goes last so a retry after partial failure still finds the
// remaining sub-records. Deleting an already-deleted post succeeds.
func (ps *PostService) DeletePost(ctx context.Context, userID int64, postID string) error {
	doc, err := store.Docs.Get(ctx, "posts/"+postID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to read post: %w", err)
	}
	if err == nil && doc.Int("authorUid") != userID {
		return ErrAccessDenied
	}

	for _, sub := range postSubcollections {
		collection := fmt.Sprintf("posts/%s/%s", postID, sub)
		docs, err := store.Docs.List(ctx, collection, "_id", false, 0)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", sub, err)
		}

		var wg sync.WaitGroup
		errs := make(chan error, len(docs))
		for _, d := range docs {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				if err := store.Docs.Delete(ctx, path); err != nil {
					errs <- err
				}
			}(collection + "/" + d.ID())
		}
		wg.Wait()
		close(errs)
		if err := <-errs; err != nil {
			return fmt.Errorf("failed to delete %s: %w", sub, err)
		}
	}

	if err := store.Docs.Delete(ctx, "posts/"+postID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	go ps.removePostFromFeedCache(context.Background(), postID)
	return nil
}

func (ps *PostService) cachedPost(ctx context.Context, postID string) (models.Post, error) {
	if RedisClient == nil {
		return models.Post{}, fmt.Errorf("redis not available")
	}
	data, err := RedisClient.Get(ctx, POST_KEY_PREFIX+postID).Result()
	if err != nil {
		return models.Post{}, err
	}
	var post models.Post
	if err := json.Unmarshal([]byte(data), &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (ps *PostService) cachePost(ctx context.Context, post models.Post) {
	if RedisClient == nil {
		return
	}
	data, err := json.Marshal(post)
	if err != nil {
		return
	}
	RedisClient.Set(ctx, POST_KEY_PREFIX+post.ID, data, FEED_CACHE_TTL)
}

func (ps *PostService) feedFromCache(ctx context.Context, limit int) ([]models.Post, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("redis not available")
	}

	postIDs, err := RedisClient.ZRevRange(ctx, FEED_CACHE_KEY, 0, int64(limit-1)).Result()
	if err != nil || len(postIDs) == 0 {
		return nil, err
	}

	pipe := RedisClient.Pipeline()
	cmds := make([]*redis.StringCmd, len(postIDs))
	for i, postID := range postIDs {
		cmds[i] = pipe.Get(ctx, POST_KEY_PREFIX+postID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	var posts []models.Post
	for _, cmd := range cmds {
		val, err := cmd.Result()
		if err != nil {
			continue
		}
		var post models.Post
		if err := json.Unmarshal([]byte(val), &post); err == nil {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (ps *PostService) addPostToFeedCache(ctx context.Context, post models.Post) {
	if RedisClient == nil || post.Visibility != models.VisibilityPublic {
		return
	}

	pipe := RedisClient.Pipeline()
	pipe.ZAdd(ctx, FEED_CACHE_KEY, &redis.Z{
		Score:  float64(post.CreatedAt.UnixNano()),
		Member: post.ID,
	})
	data, err := json.Marshal(post)
	if err != nil {
		return
	}
	pipe.Set(ctx, POST_KEY_PREFIX+post.ID, data, FEED_CACHE_TTL)
	pipe.ZRemRangeByRank(ctx, FEED_CACHE_KEY, 0, -MAX_FEED_SIZE-1)
	pipe.Expire(ctx, FEED_CACHE_KEY, FEED_CACHE_TTL)
	pipe.Exec(ctx)
}

func (ps *PostService) cacheFeed(ctx context.Context, posts []models.Post) {
	if RedisClient == nil || len(posts) == 0 {
		return
	}

	pipe := RedisClient.Pipeline()
	pipe.Del(ctx, FEED_CACHE_KEY)
	for _, post := range posts {
		pipe.ZAdd(ctx, FEED_CACHE_KEY, &redis.Z{
			Score:  float64(post.CreatedAt.UnixNano()),
			Member: post.ID,
		})
		if data, err := json.Marshal(post); err == nil {
			pipe.Set(ctx, POST_KEY_PREFIX+post.ID, data, FEED_CACHE_TTL)
		}
	}
	pipe.Expire(ctx, FEED_CACHE_KEY, FEED_CACHE_TTL)
	pipe.Exec(ctx)
}

func (ps *PostService) removePostFromFeedCache(ctx context.Context, postID string) {
	if RedisClient == nil {
		return
	}
	pipe := RedisClient.Pipeline()
	pipe.ZRem(ctx, FEED_CACHE_KEY, postID)
	pipe.Del(ctx, POST_KEY_PREFIX+postID)
	pipe.Exec(ctx)
}
