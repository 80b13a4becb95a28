package repository

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/edgehub/ingestd/internal/db"
	"github.com/edgehub/ingestd/internal/model"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	err = db.RunMigrations(conn.DB, "sqlite")
	if err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return conn
}

func seedPost(t *testing.T, repo PostRepository, id string, createdAt time.Time, tags ...string) {
	t.Helper()

	err := repo.Create(&model.Post{
		ID:             id,
		AuthorID:       "author-1",
		AuthorUsername: "tester",
		Content:        `{"text":"hello","media":[]}`,
		CreatedAt:      createdAt,
	})
	if err != nil {
		t.Fatalf("failed to create post %s: %v", id, err)
	}

	err = repo.AddTags(id, tags)
	if err != nil {
		t.Fatalf("failed to add tags for %s: %v", id, err)
	}
}

func TestPostRepositoryOrdering(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seedPost(t, repo, "post-old", base, "go")
	seedPost(t, repo, "post-new", base.Add(2*time.Hour), "go", "redis")
	seedPost(t, repo, "post-mid", base.Add(1*time.Hour))

	posts, err := repo.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(posts) != 3 {
		t.Fatalf("got %d posts, want 3", len(posts))
	}
	for i := 1; i < len(posts); i++ {
		if posts[i].CreatedAt.After(posts[i-1].CreatedAt) {
			t.Errorf("posts not in descending order: %s after %s", posts[i].ID, posts[i-1].ID)
		}
	}
	if posts[0].ID != "post-new" {
		t.Errorf("newest post first = %s, want post-new", posts[0].ID)
	}
}

func TestPostRepositoryTagsByPost(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	seedPost(t, repo, "p1", time.Now().UTC(), "go", "s3")
	seedPost(t, repo, "p2", time.Now().UTC())

	tags, err := repo.TagsByPost()
	if err != nil {
		t.Fatalf("TagsByPost: %v", err)
	}
	if len(tags["p1"]) != 2 {
		t.Errorf("p1 has %d tags, want 2", len(tags["p1"]))
	}
	if len(tags["p2"]) != 0 {
		t.Errorf("p2 has %d tags, want 0", len(tags["p2"]))
	}
}

func TestPostRepositoryStats(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	now := time.Now().UTC()
	seedPost(t, repo, "p1", now, "go", "redis")
	seedPost(t, repo, "p2", now.Add(time.Second), "go")
	seedPost(t, repo, "p3", now.Add(2*time.Second), "go", "sqlite")

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("Count = %d, want 3", count)
	}

	distinct, err := repo.DistinctTagCount()
	if err != nil {
		t.Fatalf("DistinctTagCount: %v", err)
	}
	if distinct != 3 {
		t.Errorf("DistinctTagCount = %d, want 3", distinct)
	}

	popular, err := repo.PopularTags(5)
	if err != nil {
		t.Fatalf("PopularTags: %v", err)
	}
	if len(popular) != 3 {
		t.Fatalf("PopularTags returned %d tags, want 3", len(popular))
	}
	if popular[0].Tag != "go" || popular[0].Count != 3 {
		t.Errorf("top tag = %+v, want {go 3}", popular[0])
	}
}

func TestPostRepositoryStatsEmpty(t *testing.T) {
	repo := NewPostRepository(testDB(t))

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Errorf("Count = %d, want 0", count)
	}

	distinct, err := repo.DistinctTagCount()
	if err != nil {
		t.Fatalf("DistinctTagCount: %v", err)
	}
	if distinct != 0 {
		t.Errorf("DistinctTagCount = %d, want 0", distinct)
	}

	popular, err := repo.PopularTags(5)
	if err != nil {
		t.Fatalf("PopularTags: %v", err)
	}
	if len(popular) != 0 {
		t.Errorf("PopularTags returned %d tags, want 0", len(popular))
	}
}

func TestUploadRepository(t *testing.T) {
	conn := testDB(t)
	repo := NewUploadRepository(conn)

	now := time.Now().UTC()
	uploads := []*model.Upload{
		{ID: "u1", Filename: "a.txt", StorageKey: "uploads/1-a.txt", ContentType: "text/plain", Size: 3, Source: "CLI Upload", CreatedAt: now},
		{ID: "u2", Filename: "b.txt", StorageKey: "uploads/2-b.txt", ContentType: "text/plain", Size: 5, Source: "unknown", CreatedAt: now.Add(time.Minute)},
	}
	for _, u := range uploads {
		if err := repo.Create(u); err != nil {
			t.Fatalf("Create(%s): %v", u.ID, err)
		}
	}

	recent, err := repo.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d uploads, want 2", len(recent))
	}
	if recent[0].ID != "u2" {
		t.Errorf("newest upload first = %s, want u2", recent[0].ID)
	}
	if recent[1].Source != "CLI Upload" {
		t.Errorf("source = %q, want %q", recent[1].Source, "CLI Upload")
	}
}
