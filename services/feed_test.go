package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenet/models"
	"tenet/store"
)

func setupStore(t *testing.T) {
	t.Helper()
	store.Docs = store.NewMemoryStore()
}

func createTestPost(t *testing.T, input NewPostInput) string {
	t.Helper()
	if input.Content == "" {
		input.Content = "something worth saying today"
	}
	if input.AuthorUID == 0 {
		input.AuthorUID = 1
	}
	postID, err := NewPostService().CreatePost(context.Background(), input)
	require.NoError(t, err)
	return postID
}

func TestCreatePostInitializesAggregates(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()

	postID, err := ps.CreatePost(ctx, NewPostInput{
		Content:      "  a post with leading and trailing space  ",
		SourceTitle:  " A study ",
		SourceURL:    " example.com/paper ",
		AuthorUID:    42,
		AuthorDID:    "did:plc:alice.tenetapp.space:1",
		AuthorHandle: "alice.tenetapp.space",
	})
	require.NoError(t, err)

	post, err := ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "a post with leading and trailing space", post.Content)
	assert.Equal(t, "A study", post.SourceTitle)
	assert.Equal(t, "https://example.com/paper", post.SourceURL)
	assert.Equal(t, int64(42), post.AuthorUID)
	assert.Equal(t, "alice.tenetapp.space", post.AuthorHandle)
	assert.Equal(t, models.VisibilityPublic, post.Visibility)
	assert.Equal(t, int64(0), post.EchoCount)
	assert.Equal(t, int64(0), post.ReplyCount)
	assert.Equal(t, int64(0), post.AvgAgreementScore)
	assert.False(t, post.CreatedAt.IsZero())
}

func TestCreatePostRejectsInvalidContent(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()

	_, err := ps.CreatePost(ctx, NewPostInput{Content: "valid content here", AuthorUID: 0})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = ps.CreatePost(ctx, NewPostInput{Content: strings.Repeat("x", 301), AuthorUID: 1})
	assert.ErrorIs(t, err, ErrTooLong)

	_, err = ps.CreatePost(ctx, NewPostInput{Content: "too short", AuthorUID: 1})
	assert.ErrorIs(t, err, ErrTooShort)

	_, err = ps.CreatePost(ctx, NewPostInput{
		Content:   "valid content here",
		SourceURL: "https://onlyfans.com/whoever",
		AuthorUID: 1,
	})
	assert.ErrorIs(t, err, ErrSourcePair)

	// Nothing may be persisted on rejection.
	feed, err := ps.ListFeed(ctx, 20)
	require.NoError(t, err)
	assert.Empty(t, feed.Posts)
}

func TestSetScoreRecomputesRoundedAverage(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()
	ss := NewScoreService()
	postID := createTestPost(t, NewPostInput{})

	avg, err := ss.SetScore(ctx, postID, 1, 80)
	require.NoError(t, err)
	assert.Equal(t, int64(80), avg)

	avg, err = ss.SetScore(ctx, postID, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(90), avg)

	// A user rescoring replaces, never adds a second sample.
	avg, err = ss.SetScore(ctx, postID, 1, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(80), avg)

	post, err := ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), post.AvgAgreementScore)
}

func TestSetScoreRounding(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ss := NewScoreService()
	postID := createTestPost(t, NewPostInput{})

	_, err := ss.SetScore(ctx, postID, 1, 50)
	require.NoError(t, err)
	avg, err := ss.SetScore(ctx, postID, 2, 55)
	require.NoError(t, err)
	// 52.5 rounds half away from zero.
	assert.Equal(t, int64(53), avg)
}

func TestSetScoreBounds(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ss := NewScoreService()
	postID := createTestPost(t, NewPostInput{})

	_, err := ss.SetScore(ctx, postID, 1, -1)
	assert.ErrorIs(t, err, ErrScoreRange)
	_, err = ss.SetScore(ctx, postID, 1, 101)
	assert.ErrorIs(t, err, ErrScoreRange)
	_, err = ss.SetScore(ctx, postID, 0, 50)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Boundary values are accepted.
	_, err = ss.SetScore(ctx, postID, 1, 0)
	assert.NoError(t, err)
	_, err = ss.SetScore(ctx, postID, 2, 100)
	assert.NoError(t, err)
}

func TestToggleEchoIsInvolutive(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()
	es := NewEchoService()
	postID := createTestPost(t, NewPostInput{})

	echoed, err := es.ToggleEcho(ctx, postID, 7)
	require.NoError(t, err)
	assert.True(t, echoed)

	post, err := ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.EchoCount)

	echoed, err = es.ToggleEcho(ctx, postID, 7)
	require.NoError(t, err)
	assert.False(t, echoed)

	post, err = ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), post.EchoCount)

	// Different users each count once.
	_, err = es.ToggleEcho(ctx, postID, 7)
	require.NoError(t, err)
	_, err = es.ToggleEcho(ctx, postID, 8)
	require.NoError(t, err)
	post, err = ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.EchoCount)
}

func TestSubmitReplyOnePerUser(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()
	rs := NewReplyService()
	postID := createTestPost(t, NewPostInput{})

	require.NoError(t, rs.SubmitReply(ctx, postID, 1, "alice.tenetapp.space", "first take on this"))
	require.NoError(t, rs.SubmitReply(ctx, postID, 2, "bob.tenetapp.space", "second opinion here"))

	post, err := ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.ReplyCount)

	replies, err := rs.ListReplies(ctx, postID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, "alice.tenetapp.space", replies[0].AuthorHandle)
	assert.Equal(t, "bob.tenetapp.space", replies[1].AuthorHandle)
	assert.True(t, !replies[1].CreatedAt.Before(replies[0].CreatedAt))

	// Same user again replaces the reply, count stays.
	require.NoError(t, rs.SubmitReply(ctx, postID, 1, "alice.tenetapp.space", "changed my mind"))
	post, err = ps.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), post.ReplyCount)

	replies, err = rs.ListReplies(ctx, postID)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	texts := []string{replies[0].ReplyText, replies[1].ReplyText}
	assert.Contains(t, texts, "changed my mind")
	assert.NotContains(t, texts, "first take on this")
}

func TestSubmitReplyValidation(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	rs := NewReplyService()
	postID := createTestPost(t, NewPostInput{})

	assert.ErrorIs(t, rs.SubmitReply(ctx, postID, 0, "h", "a reply"), ErrUnauthenticated)
	assert.ErrorIs(t, rs.SubmitReply(ctx, postID, 1, "h", "   "), ErrTooShort)
	assert.ErrorIs(t, rs.SubmitReply(ctx, postID, 1, "h", strings.Repeat("y", 301)), ErrTooLong)
	assert.ErrorIs(t, rs.SubmitReply(ctx, postID, 1, "h", "utter bullshit"), ErrProfanity)
}

func TestDeletePostCascades(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()
	postID := createTestPost(t, NewPostInput{AuthorUID: 42})

	_, err := NewScoreService().SetScore(ctx, postID, 1, 70)
	require.NoError(t, err)
	_, err = NewEchoService().ToggleEcho(ctx, postID, 1)
	require.NoError(t, err)
	require.NoError(t, NewReplyService().SubmitReply(ctx, postID, 1, "h", "a reply to keep"))

	require.NoError(t, ps.DeletePost(ctx, 42, postID))

	_, err = ps.GetPost(ctx, postID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	for _, sub := range []string{"agreements", "echoes", "replies"} {
		docs, err := store.Docs.List(ctx, "posts/"+postID+"/"+sub, "_id", false, 0)
		require.NoError(t, err)
		assert.Empty(t, docs, "subcollection %s must be empty", sub)
	}

	// Deleting again is a no-op, not an error.
	assert.NoError(t, ps.DeletePost(ctx, 42, postID))
}

func TestDeletePostOwnership(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()
	postID := createTestPost(t, NewPostInput{AuthorUID: 42})

	err := ps.DeletePost(ctx, 7, postID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = ps.GetPost(ctx, postID)
	assert.NoError(t, err)
}

func TestListFeedPageLimitAppliesAfterVisibilityFilter(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()

	oldPublic := createTestPost(t, NewPostInput{Content: "an older public post here"})
	for i := 0; i < 3; i++ {
		createTestPost(t, NewPostInput{Content: "a newer private draft here", Visibility: models.VisibilityPrivate})
	}
	newPublic := createTestPost(t, NewPostInput{Content: "the newest public post here"})

	// A page of 2 skips the private run and still fills with public posts.
	feed, err := ps.ListFeed(ctx, 2)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, newPublic, feed.Posts[0].ID)
	assert.Equal(t, oldPublic, feed.Posts[1].ID)
	assert.False(t, feed.HasMore)

	// HasMore reports a further public post past the page, not merely a
	// full page.
	feed, err = ps.ListFeed(ctx, 1)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	assert.Equal(t, newPublic, feed.Posts[0].ID)
	assert.True(t, feed.HasMore)
}

func TestListFeedNewestFirstPublicOnly(t *testing.T) {
	setupStore(t)
	ctx := context.Background()
	ps := NewPostService()

	first := createTestPost(t, NewPostInput{Content: "the very first post here"})
	createTestPost(t, NewPostInput{Content: "a hidden draft of mine", Visibility: models.VisibilityPrivate})
	last := createTestPost(t, NewPostInput{Content: "the very latest post here"})

	feed, err := ps.ListFeed(ctx, 20)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 2)
	assert.Equal(t, last, feed.Posts[0].ID)
	assert.Equal(t, first, feed.Posts[1].ID)
	assert.False(t, feed.HasMore)
}
