package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/edgehub/ingestd/internal/model"
	"github.com/edgehub/ingestd/internal/repository"
	"github.com/edgehub/ingestd/internal/storage"
)

var (
	// ErrInvalidMetadata means the metadata part parsed but does not match an
	// accepted shape, or carries an unknown type discriminator.
	ErrInvalidMetadata = errors.New("invalid metadata format")
)

// UploadMode discriminates the two accepted multipart shapes.
type UploadMode string

const (
	ModeSimple UploadMode = "simple"
	ModePost   UploadMode = "post"
)

// MetadataEnvelope is the tagged union carried by the optional metadata part.
type MetadataEnvelope struct {
	Type     string          `json:"type"`
	Metadata json.RawMessage `json:"metadata"`
}

// Author identifies who submitted a post. Avatar is optional and is not
// persisted with the post row.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// PostMetadata is the caller-supplied post shape inside a post envelope.
type PostMetadata struct {
	ID      string `json:"id"`
	Author  Author `json:"author"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Tags      []string  `json:"tags"`
}

// PostView is the post shape returned to callers, with tags joined in and
// media merged into the content.
type PostView struct {
	ID        string            `json:"id"`
	Author    Author            `json:"author"`
	Content   model.PostContent `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Tags      []string          `json:"tags"`
}

// FileUpload carries one simple-mode binary part.
type FileUpload struct {
	Body        io.Reader
	Filename    string
	Source      string
	ContentType string
	Size        int64
}

type IngestService struct {
	uploads repository.UploadRepository
	posts   repository.PostRepository
	storage storage.Storage

	now func() time.Time // overridable for tests
}

func NewIngestService(uploads repository.UploadRepository, posts repository.PostRepository, storage storage.Storage) *IngestService {
	return &IngestService{
		uploads: uploads,
		posts:   posts,
		storage: storage,
		now:     time.Now,
	}
}

// DecodeMetadata parses the metadata part and resolves the upload mode.
// An unknown discriminator or a malformed body is a client error; no store
// work happens before this check passes.
func DecodeMetadata(raw string) (UploadMode, *PostMetadata, error) {
	var envelope MetadataEnvelope
	err := json.Unmarshal([]byte(raw), &envelope)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}

	switch UploadMode(envelope.Type) {
	case ModeSimple:
		return ModeSimple, nil, nil
	case ModePost:
		var meta PostMetadata
		err = json.Unmarshal(envelope.Metadata, &meta)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
		}
		if meta.ID == "" || meta.Author.ID == "" || meta.Author.Username == "" {
			return "", nil, fmt.Errorf("%w: id and author are required", ErrInvalidMetadata)
		}
		return ModePost, &meta, nil
	default:
		return "", nil, ErrInvalidMetadata
	}
}

// IngestFile runs the simple-mode saga: one blob write under a
// timestamp-prefixed key, then one uploads row. A row failure after the blob
// write leaves the blob in place; it is reported, not repaired.
func (s *IngestService) IngestFile(ctx context.Context, in FileUpload) (*model.Upload, error) {
	now := s.now().UTC()
	key := fmt.Sprintf("uploads/%d-%s", now.UnixMilli(), in.Filename)

	err := s.storage.Put(ctx, key, in.Body, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	upload := &model.Upload{
		ID:          uuid.New().String(),
		Filename:    in.Filename,
		StorageKey:  key,
		ContentType: in.ContentType,
		Size:        in.Size,
		Source:      in.Source,
		CreatedAt:   now,
	}

	err = s.uploads.Create(upload)
	if err != nil {
		slog.Error("upload row write failed after blob write, reconcile",
			"storage_key", key,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	return upload, nil
}

// IngestPost runs the post-mode saga: every media part is written to the blob
// store concurrently and awaited jointly, then the post row and one tag row
// per tag are written. A blob failure aborts before the relational writes;
// already-written sibling blobs are not rolled back. A relational failure
// after the blob writes emits a reconciliation log and surfaces the error.
func (s *IngestService) IngestPost(ctx context.Context, meta *PostMetadata, files []*multipart.FileHeader) (*PostView, error) {
	media := make([]model.Media, len(files))
	keys := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, fh := range files {
		key := fmt.Sprintf("media/%s/%s", meta.ID, fh.Filename)
		keys[i] = key

		g.Go(func() error {
			f, err := fh.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", fh.Filename, err)
			}
			defer func() { _ = f.Close() }()

			contentType := fh.Header.Get("Content-Type")
			err = s.storage.Put(gctx, key, f, contentType)
			if err != nil {
				return fmt.Errorf("failed to store %s: %w", fh.Filename, err)
			}

			media[i] = model.Media{Type: mediaType(contentType), URL: key}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}

	createdAt := meta.Timestamp
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	content := model.PostContent{Text: meta.Content.Text, Media: media}
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize content: %w", err)
	}

	post := &model.Post{
		ID:             meta.ID,
		AuthorID:       meta.Author.ID,
		AuthorUsername: meta.Author.Username,
		Content:        string(raw),
		CreatedAt:      createdAt,
	}

	err = s.posts.Create(post)
	if err != nil {
		slog.Error("post row write failed after media writes, reconcile",
			"post_id", meta.ID,
			"media_keys", keys,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record post: %w", err)
	}

	err = s.posts.AddTags(meta.ID, meta.Tags)
	if err != nil {
		slog.Error("tag rows write failed after post write, reconcile",
			"post_id", meta.ID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to record tags: %w", err)
	}

	tags := meta.Tags
	if tags == nil {
		tags = []string{}
	}

	return &PostView{
		ID:        meta.ID,
		Author:    meta.Author,
		Content:   content,
		CreatedAt: createdAt,
		Tags:      tags,
	}, nil
}

// mediaType buckets a part's content type into the media vocabulary.
func mediaType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return model.MediaTypeImage
	case strings.HasPrefix(contentType, "video/"):
		return model.MediaTypeVideo
	default:
		return model.MediaTypeFile
	}
}
