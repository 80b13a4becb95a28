package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/edgehub/ingestd/internal/model"
	"github.com/edgehub/ingestd/internal/repository"
)

// Stats is the derived summary served on /api/stats.
type Stats struct {
	TotalPosts  int              `json:"total_posts"`
	TotalTags   int              `json:"total_tags"`
	PopularTags []model.TagCount `json:"popular_tags"`
}

// UploadView is the upload listing entry served on /api/uploads.
type UploadView struct {
	Filename    string `json:"filename"`
	Key         string `json:"key"`
	ContentType string `json:"type"`
	Size        int64  `json:"size"`
	Source      string `json:"source"`
	CreatedAt   string `json:"created_at"`
}

// FeedService serves the read-only aggregate views over the metadata store.
type FeedService struct {
	posts   repository.PostRepository
	uploads repository.UploadRepository
}

func NewFeedService(posts repository.PostRepository, uploads repository.UploadRepository) *FeedService {
	return &FeedService{
		posts:   posts,
		uploads: uploads,
	}
}

// Posts returns every post, newest first, with tags grouped per post and the
// stored content deserialized. Malformed stored content is a server error,
// not a partial result.
func (s *FeedService) Posts() ([]PostView, error) {
	posts, err := s.posts.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}

	tagsByPost, err := s.posts.TagsByPost()
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}

	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		var content model.PostContent
		err = json.Unmarshal([]byte(post.Content), &content)
		if err != nil {
			return nil, fmt.Errorf("malformed stored content for post %s: %w", post.ID, err)
		}

		tags := tagsByPost[post.ID]
		if tags == nil {
			tags = []string{}
		}

		views = append(views, PostView{
			ID:        post.ID,
			Author:    Author{ID: post.AuthorID, Username: post.AuthorUsername},
			Content:   content,
			CreatedAt: post.CreatedAt,
			Tags:      tags,
		})
	}

	return views, nil
}

// Stats returns the post count, the distinct tag count, and the five most
// frequent tags. Tie order among equal counts follows store order.
func (s *FeedService) Stats() (*Stats, error) {
	totalPosts, err := s.posts.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	totalTags, err := s.posts.DistinctTagCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}

	popular, err := s.posts.PopularTags(5)
	if err != nil {
		return nil, fmt.Errorf("failed to load popular tags: %w", err)
	}

	return &Stats{
		TotalPosts:  totalPosts,
		TotalTags:   totalTags,
		PopularTags: popular,
	}, nil
}

// Uploads returns the most recent simple-mode uploads, newest first.
func (s *FeedService) Uploads() ([]UploadView, error) {
	uploads, err := s.uploads.Recent(50)
	if err != nil {
		return nil, fmt.Errorf("failed to load uploads: %w", err)
	}

	views := make([]UploadView, 0, len(uploads))
	for _, u := range uploads {
		views = append(views, UploadView{
			Filename:    u.Filename,
			Key:         u.StorageKey,
			ContentType: u.ContentType,
			Size:        u.Size,
			Source:      u.Source,
			CreatedAt:   u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return views, nil
}
