package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/edgehub/ingestd/internal/model"
)

type PostRepository interface {
	Create(post *model.Post) error
	AddTags(postID string, tags []string) error
	All() ([]*model.Post, error)
	TagsByPost() (map[string][]string, error)
	Count() (int, error)
	DistinctTagCount() (int, error)
	PopularTags(n int) ([]model.TagCount, error)
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *model.Post) error {
	query := `INSERT INTO posts (id, author_id, author_username, content, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query,
		post.ID,
		post.AuthorID,
		post.AuthorUsername,
		post.Content,
		post.CreatedAt,
	)

	return err
}

func (r *postRepository) AddTags(postID string, tags []string) error {
	query := `INSERT INTO post_tags (post_id, tag) VALUES ($1, $2)`

	for _, tag := range tags {
		_, err := r.db.Exec(query, postID, tag)
		if err != nil {
			return err
		}
	}

	return nil
}

// All returns every post, newest first.
func (r *postRepository) All() ([]*model.Post, error) {
	var posts []*model.Post
	query := `SELECT * FROM posts ORDER BY created_at DESC`

	err := r.db.Select(&posts, query)
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// TagsByPost returns every tag association grouped by post ID.
func (r *postRepository) TagsByPost() (map[string][]string, error) {
	var rows []model.PostTag
	query := `SELECT post_id, tag FROM post_tags`

	err := r.db.Select(&rows, query)
	if err != nil {
		return nil, err
	}

	tags := make(map[string][]string)
	for _, row := range rows {
		tags[row.PostID] = append(tags[row.PostID], row.Tag)
	}

	return tags, nil
}

func (r *postRepository) Count() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(*) FROM posts`)
	return count, err
}

func (r *postRepository) DistinctTagCount() (int, error) {
	var count int
	err := r.db.Get(&count, `SELECT COUNT(DISTINCT tag) FROM post_tags`)
	return count, err
}

// PopularTags returns the n most frequent tags. Ties are broken by whatever
// order the store yields; callers must not rely on tie order.
func (r *postRepository) PopularTags(n int) ([]model.TagCount, error) {
	tags := []model.TagCount{}
	query := `SELECT tag, COUNT(*) AS count FROM post_tags GROUP BY tag ORDER BY count DESC LIMIT $1`

	err := r.db.Select(&tags, query, n)
	if err != nil {
		return nil, err
	}

	return tags, nil
}
