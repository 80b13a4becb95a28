package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFeedStatsEmpty(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	w := httptest.NewRecorder()
	env.feed.Stats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := decodeBody(t, w)
	if body["total_posts"] != float64(0) || body["total_tags"] != float64(0) {
		t.Errorf("empty stats = %v, want zero totals", body)
	}
	tags, ok := body["popular_tags"].([]any)
	if !ok {
		t.Fatalf("popular_tags must be a JSON array, got %v", body["popular_tags"])
	}
	if len(tags) != 0 {
		t.Errorf("popular_tags = %v, want empty", tags)
	}
}

func TestFeedPostsAfterIngest(t *testing.T) {
	env := newTestEnv(t)

	metadata := `{"type":"post","metadata":{"id":"post-1","author":{"id":"a1","username":"alice"},"content":{"text":"hi"},"tags":["go"]}}`
	buf, contentType := multipartBody(t, nil, map[string]string{"metadata": metadata})
	r := httptest.NewRequest(http.MethodPost, "/api/ingest", buf)
	r.Header.Set("Content-Type", contentType)
	env.ingest.Ingest(httptest.NewRecorder(), r)

	w := httptest.NewRecorder()
	env.feed.Posts(w, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\n%s", w.Code, w.Body.String())
	}

	var posts []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &posts); err != nil {
		t.Fatalf("response is not a JSON array: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	if posts[0]["id"] != "post-1" {
		t.Errorf("id = %v, want post-1", posts[0]["id"])
	}
	author := posts[0]["author"].(map[string]any)
	if author["username"] != "alice" {
		t.Errorf("author = %v", author)
	}
}

func TestFeedNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.feed.NotFound(w, httptest.NewRequest(http.MethodGet, "/api/missing", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "Not found" {
		t.Errorf("error = %v", body["error"])
	}
}
