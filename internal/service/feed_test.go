package service

import (
	"testing"
	"time"

	"github.com/edgehub/ingestd/internal/model"
	"github.com/edgehub/ingestd/internal/repository"
)

func seedFeedPost(t *testing.T, posts repository.PostRepository, id, content string, createdAt time.Time, tags ...string) {
	t.Helper()

	err := posts.Create(&model.Post{
		ID:             id,
		AuthorID:       "a1",
		AuthorUsername: "alice",
		Content:        content,
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("create post %s: %v", id, err)
	}
	if err := posts.AddTags(id, tags); err != nil {
		t.Fatalf("add tags %s: %v", id, err)
	}
}

func TestFeedPosts(t *testing.T) {
	uploads, posts, _ := testRepos(t)
	svc := NewFeedService(posts, uploads)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seedFeedPost(t, posts, "p1", `{"text":"first","media":[]}`, base, "go")
	seedFeedPost(t, posts, "p2", `{"text":"second","media":[{"type":"image","url":"media/p2/cat.jpg"}]}`, base.Add(time.Hour), "go", "cats")

	views, err := svc.Posts()
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d posts, want 2", len(views))
	}
	if views[0].ID != "p2" {
		t.Errorf("newest post first = %s, want p2", views[0].ID)
	}
	for i := 1; i < len(views); i++ {
		if views[i].CreatedAt.After(views[i-1].CreatedAt) {
			t.Errorf("posts out of order at %d", i)
		}
	}
	if len(views[0].Content.Media) != 1 {
		t.Errorf("p2 media = %d, want 1", len(views[0].Content.Media))
	}
	if len(views[0].Tags) != 2 {
		t.Errorf("p2 tags = %v, want 2 entries", views[0].Tags)
	}
	if views[1].Tags == nil {
		t.Error("tags must never be nil")
	}
}

func TestFeedPostsMalformedContent(t *testing.T) {
	uploads, posts, _ := testRepos(t)
	svc := NewFeedService(posts, uploads)

	seedFeedPost(t, posts, "p1", `not-json`, time.Now().UTC())

	_, err := svc.Posts()
	if err == nil {
		t.Fatal("malformed stored content should surface as an error")
	}
}

func TestFeedStatsEmpty(t *testing.T) {
	uploads, posts, _ := testRepos(t)
	svc := NewFeedService(posts, uploads)

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalPosts != 0 || stats.TotalTags != 0 {
		t.Errorf("stats = %+v, want zeros", stats)
	}
	if stats.PopularTags == nil || len(stats.PopularTags) != 0 {
		t.Errorf("PopularTags = %v, want empty non-nil slice", stats.PopularTags)
	}
}

func TestFeedStats(t *testing.T) {
	uploads, posts, _ := testRepos(t)
	svc := NewFeedService(posts, uploads)

	now := time.Now().UTC()
	seedFeedPost(t, posts, "p1", `{"text":"a","media":[]}`, now, "go", "redis")
	seedFeedPost(t, posts, "p2", `{"text":"b","media":[]}`, now.Add(time.Second), "go")

	stats, err := svc.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalPosts != 2 {
		t.Errorf("TotalPosts = %d, want 2", stats.TotalPosts)
	}
	if stats.TotalTags != 2 {
		t.Errorf("TotalTags = %d, want 2", stats.TotalTags)
	}
	if len(stats.PopularTags) != 2 || stats.PopularTags[0].Tag != "go" || stats.PopularTags[0].Count != 2 {
		t.Errorf("PopularTags = %v, want go first with count 2", stats.PopularTags)
	}
}

func TestFeedUploads(t *testing.T) {
	uploads, posts, _ := testRepos(t)
	svc := NewFeedService(posts, uploads)

	now := time.Now().UTC()
	err := uploads.Create(&model.Upload{
		ID: "u1", Filename: "a.txt", StorageKey: "uploads/1-a.txt",
		ContentType: "text/plain", Size: 3, Source: "CLI Upload", CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("create upload: %v", err)
	}

	views, err := svc.Uploads()
	if err != nil {
		t.Fatalf("Uploads: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("got %d uploads, want 1", len(views))
	}
	if views[0].Key != "uploads/1-a.txt" || views[0].Source != "CLI Upload" {
		t.Errorf("upload view = %+v", views[0])
	}
}
