package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	trendingRepo "anoa.com/feedsync/internal/modules/trending/repository"
	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/richtext"
)

const DefaultLimit = 10

var tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

type Tag struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type TrendingService interface {
	Top(ctx context.Context) ([]Tag, error)
}

type trendingService struct {
	repo  trendingRepo.CorpusRepository
	limit int
}

func NewTrendingService(repo trendingRepo.CorpusRepository, limit int) TrendingService {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &trendingService{repo: repo, limit: limit}
}

// Top recomputes the ranking over the whole corpus on every call.
func (s *trendingService) Top(ctx context.Context) ([]Tag, error) {
	counts := make(map[string]int)
	err := s.repo.Contents(ctx, func(contents []string) error {
		countTags(counts, contents)
		return ctx.Err()
	})
	if err != nil {
		return nil, apperror.Remote(err)
	}
	return top(counts, s.limit), nil
}

// Rank counts #tags in the visible text of contents case-insensitively and returns the limit most
// frequent, ties broken by tag.
func Rank(contents []string, limit int) []Tag {
	counts := make(map[string]int)
	countTags(counts, contents)
	return top(counts, limit)
}

func countTags(counts map[string]int, contents []string) {
	for _, content := range contents {
		// Stored bodies are HTML; entities like &#39; and href fragments are not tags.
		for _, m := range tagPattern.FindAllStringSubmatch(richtext.PlainText(content), -1) {
			counts[strings.ToLower(m[1])]++
		}
	}
}

func top(counts map[string]int, limit int) []Tag {
	tags := make([]Tag, 0, len(counts))
	for tag, count := range counts {
		tags = append(tags, Tag{Tag: tag, Count: count})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if limit > 0 && len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}
