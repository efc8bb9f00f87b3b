package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"anoa.com/feedsync/pkg/apperror"
	"anoa.com/feedsync/pkg/richtext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCorpus struct {
	batches [][]string
	err     error
}

func (f *fakeCorpus) Contents(_ context.Context, fn func([]string) error) error {
	if f.err != nil {
		return f.err
	}
	for _, b := range f.batches {
		if err := fn(b); err != nil {
			return err
		}
	}
	return nil
}

func TestRankCaseInsensitive(t *testing.T) {
	got := Rank([]string{"#Go #go #rust", "#go"}, DefaultLimit)
	assert.Equal(t, []Tag{{Tag: "go", Count: 3}, {Tag: "rust", Count: 1}}, got)
}

func TestRankTiesAndLimit(t *testing.T) {
	var contents []string
	for i := 0; i < 12; i++ {
		contents = append(contents, fmt.Sprintf("#tag%02d", i))
	}
	contents = append(contents, "#zeta #zeta", "#émigré café #日本")

	got := Rank(contents, 10)
	require.Len(t, got, 10)
	assert.Equal(t, Tag{Tag: "zeta", Count: 2}, got[0])
	assert.Equal(t, "tag00", got[1].Tag)
	assert.Equal(t, "tag08", got[9].Tag)

	all := Rank(contents, 0)
	assert.Contains(t, all, Tag{Tag: "émigré", Count: 1})
	assert.Contains(t, all, Tag{Tag: "日本", Count: 1})
}

func TestRankStoredHTML(t *testing.T) {
	contents := []string{
		richtext.Sanitize(`It's a "great" day for #go`),
		richtext.Sanitize(`<p>Don't forget #go</p>`),
		richtext.Sanitize(`<p>see <a href="https://example.com/#intro">the docs</a></p><p>#rust</p>`),
	}

	assert.Equal(t, []Tag{{Tag: "go", Count: 2}, {Tag: "rust", Count: 1}}, Rank(contents, DefaultLimit))
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil, 10))
	assert.Empty(t, Rank([]string{"no tags here", "# alone"}, 10))
}

func TestTopAcrossBatches(t *testing.T) {
	svc := NewTrendingService(&fakeCorpus{batches: [][]string{{"#Go #go #rust"}, {"#go"}}}, 0)

	got, err := svc.Top(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Tag: "go", Count: 3}, {Tag: "rust", Count: 1}}, got)
}

func TestTopRemoteFailure(t *testing.T) {
	svc := NewTrendingService(&fakeCorpus{err: errors.New("timeout")}, 10)

	_, err := svc.Top(context.Background())
	assert.ErrorIs(t, err, apperror.ErrRemote)
}
