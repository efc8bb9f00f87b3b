package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"anoa.com/feedsync/internal/entity"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/richtext"
	"github.com/meilisearch/meilisearch-go"
)

const (
	postsIndex    = "posts"
	DefaultLimit  = 20
	maxQueryLimit = 50
)

// Hit is one post matched by a search.
type Hit struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	GroupID   string   `json:"group_id,omitempty"`
	CreatedAt int64    `json:"created_at"`
	User      hitOwner `json:"user"`
}

type hitOwner struct {
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

// SearchService keeps the post index in step with the store and queries it.
type SearchService interface {
	IndexPost(ctx context.Context, post *entity.Post, private bool) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) SearchService {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	filterable := []any{"group_id", "is_private"}
	if _, err := s.client.Index(postsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("❌ update posts filterable attributes: %v", err)
	}

	sortable := []string{"created_at"}
	if _, err := s.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		log.Printf("❌ update posts sortable attributes: %v", err)
	}

	log.Println("✅ Meilisearch indexes initialized")
}

type meiliPostDoc struct {
	ID        string   `json:"id"`
	Content   string   `json:"content"`
	GroupID   string   `json:"group_id,omitempty"`
	IsPrivate bool     `json:"is_private"`
	CreatedAt int64    `json:"created_at"`
	User      hitOwner `json:"user"`
}

func indexContent(content string) string {
	// Block ends become spaces so paragraphs do not merge into one word.
	for _, tag := range []string{"</p>", "<br>", "<br/>", "</div>", "</li>"} {
		content = strings.ReplaceAll(content, tag, tag+" ")
	}
	return strings.Join(strings.Fields(richtext.PlainText(content)), " ")
}

func newPostDoc(post *entity.Post, private bool) meiliPostDoc {
	doc := meiliPostDoc{
		ID:        post.ID.String(),
		Content:   indexContent(post.Content),
		IsPrivate: private,
		CreatedAt: post.CreatedAt.Unix(),
		User: hitOwner{
			Username: post.Author.Username,
		},
	}
	if post.GroupID != nil {
		doc.GroupID = post.GroupID.String()
	}
	if post.Author.AvatarURL != nil {
		doc.User.AvatarURL = *post.Author.AvatarURL
	}
	return doc
}

// IndexPost adds or replaces the post document. Posts of private groups are
// stored but filtered out of every search.
func (s *meiliSearchService) IndexPost(ctx context.Context, post *entity.Post, private bool) error {
	doc := newPostDoc(post, private)
	primaryKey := "id"
	task, err := s.client.Index(postsIndex).AddDocumentsWithContext(ctx, []meiliPostDoc{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("index post %s: %w", post.ID, err)
	}
	log.Printf("Indexed post %s, task id: %d", post.ID, task.TaskUID)
	return nil
}

func (s *meiliSearchService) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is required: %w", apperror.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxQueryLimit {
		limit = maxQueryLimit
	}

	resp, err := s.client.Index(postsIndex).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit:  int64(limit),
		Filter: "is_private = false",
		Sort:   []string{"created_at:desc"},
	})
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return decodeHits(resp.Hits)
}

// decodeHits re-encodes the raw hit maps into typed hits.
func decodeHits(raw any) ([]Hit, error) {
	payload, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode search hits: %w", err)
	}
	hits := []Hit{}
	if err := json.Unmarshal(payload, &hits); err != nil {
		return nil, fmt.Errorf("decode search hits: %w", err)
	}
	return hits, nil
}
