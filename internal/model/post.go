package model

import (
	"time"
)

const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeFile  = "file"
)

// Post is the relational row for a structured post submission. Content holds
// the serialized PostContent JSON exactly as it is returned to readers.
type Post struct {
	ID             string    `db:"id"`
	AuthorID       string    `db:"author_id"`
	AuthorUsername string    `db:"author_username"`
	Content        string    `db:"content"`
	CreatedAt      time.Time `db:"created_at"`
}

// PostContent is the structured body of a post: the caller-supplied text plus
// the media list derived from the uploaded parts.
type PostContent struct {
	Text  string  `json:"text"`
	Media []Media `json:"media"`
}

// Media references one uploaded blob. URL is the storage key of the form
// media/{postId}/{originalFilename}.
type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// PostTag is one post-to-tag association row.
type PostTag struct {
	PostID string `db:"post_id"`
	Tag    string `db:"tag"`
}

// TagCount is a tag with its occurrence count, used by the stats view.
type TagCount struct {
	Tag   string `db:"tag" json:"tag"`
	Count int    `db:"count" json:"count"`
}
