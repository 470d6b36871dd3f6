package models

import (
	"time"

	"tenet/store"
)

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityFollowers Visibility = "followers"
)

// Post is the feed document with its denormalized aggregates.
type Post struct {
	ID                string     `json:"id"`
	AuthorUID         int64      `json:"author_uid"`
	AuthorDID         string     `json:"author_did"`
	AuthorHandle      string     `json:"author_handle"`
	Content           string     `json:"content"`
	SourceTitle       string     `json:"source_title,omitempty"`
	SourceURL         string     `json:"source_url,omitempty"`
	Visibility        Visibility `json:"visibility"`
	EchoCount         int64      `json:"echo_count"`
	ReplyCount        int64      `json:"reply_count"`
	AvgAgreementScore int64      `json:"avg_agreement_score"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Reply lives under a post, keyed by the author's user id.
type Reply struct {
	UserID       int64     `json:"user_id"`
	AuthorHandle string    `json:"author_handle"`
	ReplyText    string    `json:"reply_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedResponse is the API shape for a feed page.
type FeedResponse struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
}

func PostFromDoc(doc store.Doc) Post {
	return Post{
		ID:                doc.ID(),
		AuthorUID:         doc.Int("authorUid"),
		AuthorDID:         doc.String("authorDid"),
		AuthorHandle:      doc.String("authorHandle"),
		Content:           doc.String("content"),
		SourceTitle:       doc.String("sourceTitle"),
		SourceURL:         doc.String("sourceURL"),
		Visibility:        Visibility(doc.String("visibility")),
		EchoCount:         doc.Int("echoCount"),
		ReplyCount:        doc.Int("replyCount"),
		AvgAgreementScore: doc.Int("avgAgreementScore"),
		CreatedAt:         doc.Time("createdAt"),
	}
}

func ReplyFromDoc(doc store.Doc) Reply {
	return Reply{
		UserID:       doc.Int("userId"),
		AuthorHandle: doc.String("authorHandle"),
		ReplyText:    doc.String("replyText"),
		CreatedAt:    doc.Time("createdAt"),
	}
}
