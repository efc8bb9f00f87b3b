package service

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"anoa.com/feedsync/internal/entity"
	"anoa.com/feedsync/pkg/apperror"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// mentionNode is the span the rich text editor emits for a picked user.
const mentionNode = `span[data-type="mention"]`

// A plain-text @ only counts at a word boundary, so e-mail addresses are not
// read as mentions.
var mentionPattern = regexp.MustCompile(`(?:^|[^\w@])@([A-Za-z0-9_.]+)`)

// ProfileLookup is the part of the profile store the extractor needs.
type ProfileLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindByUsername(ctx context.Context, username string) (*entity.Profile, error)
	FindByUsernamePrefix(ctx context.Context, prefix string, limit int) ([]entity.Profile, error)
}

type Extractor struct {
	profiles ProfileLookup
}

func NewExtractor(profiles ProfileLookup) *Extractor {
	return &Extractor{profiles: profiles}
}

// Extract returns the distinct ids of the users referenced in content,
// sorted by id. References that match no profile are dropped.
func (e *Extractor) Extract(ctx context.Context, content string) ([]uuid.UUID, error) {
	refs, err := references(content)
	if err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]struct{})
	for _, ref := range refs {
		id, ok, err := e.resolve(ctx, ref)
		if err != nil {
			return nil, apperror.Remote(err)
		}
		if ok {
			found[id] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// references lists the distinct raw references in content: uuids from mention
// nodes and lower-cased usernames from node labels and plain text.
func references(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var refs []string
	add := func(ref string) {
		ref = strings.TrimRight(strings.TrimPrefix(strings.TrimSpace(ref), "@"), ".")
		if ref == "" {
			return
		}
		if _, err := uuid.Parse(ref); err != nil {
			ref = strings.ToLower(ref)
		}
		if _, dup := seen[ref]; dup {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	doc.Find(mentionNode).Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("data-id"); ok && strings.TrimSpace(id) != "" {
			add(id)
		} else if label, ok := s.Attr("data-label"); ok {
			add(label)
		}
	})
	doc.Find(mentionNode).Remove()

	// Scan text nodes one by one so adjacent blocks do not run together.
	doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		el.Contents().Each(func(_ int, node *goquery.Selection) {
			if goquery.NodeName(node) != "#text" {
				return
			}
			for _, m := range mentionPattern.FindAllStringSubmatch(node.Text(), -1) {
				add(m[1])
			}
		})
	})
	return refs, nil
}

func (e *Extractor) resolve(ctx context.Context, ref string) (uuid.UUID, bool, error) {
	if id, err := uuid.Parse(ref); err == nil {
		profile, err := e.profiles.FindByID(ctx, id)
		if err != nil || profile == nil {
			return uuid.Nil, false, err
		}
		return profile.ID, true, nil
	}

	profile, err := e.profiles.FindByUsername(ctx, ref)
	if err != nil {
		return uuid.Nil, false, err
	}
	if profile != nil {
		return profile.ID, true, nil
	}

	// Two rows are enough to tell a unique prefix from an ambiguous one.
	candidates, err := e.profiles.FindByUsernamePrefix(ctx, ref, 2)
	if err != nil {
		return uuid.Nil, false, err
	}
	if len(candidates) != 1 {
		return uuid.Nil, false, nil
	}
	return candidates[0].ID, true, nil
}
