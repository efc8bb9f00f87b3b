package repository

import (
	"strings"
	"testing"

	feedDto "anoa.com/feedsync/internal/modules/feed/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB renders SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=feedsync dbname=feedsync sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	return db
}

func listSQL(t *testing.T, viewerID uuid.UUID, sel feedDto.Selection) string {
	t.Helper()
	db := dryRunDB(t)
	repo := &feedRepository{db: db}
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []Row
		return repo.query(tx, viewerID, sel).Find(&rows)
	})
}

func TestListHidesPrivateGroupPosts(t *testing.T) {
	viewer := uuid.New()
	groupID := uuid.New()
	authorID := uuid.New()

	for name, sel := range map[string]feedDto.Selection{
		"all":       feedDto.All(),
		"by group":  feedDto.ByGroup(groupID),
		"by author": feedDto.ByAuthor(authorID),
		"by id":     feedDto.ByID(uuid.New()),
	} {
		t.Run(name, func(t *testing.T) {
			sql := listSQL(t, viewer, sel)
			assert.Contains(t, sql, "posts.group_id IS NULL")
			assert.Contains(t, sql, "NOT groups.is_private")
			assert.Contains(t, sql, "group_members.user_id = '"+viewer.String()+"'")
		})
	}

	assert.Contains(t, listSQL(t, viewer, feedDto.ByGroup(groupID)), "posts.group_id = '"+groupID.String()+"'")
}

func TestListAnonymousMatchesNoMembership(t *testing.T) {
	sql := listSQL(t, uuid.Nil, feedDto.All())
	// once for the like flag, once for the membership check
	assert.Equal(t, 2, strings.Count(sql, uuid.Nil.String()))
	assert.Contains(t, sql, "ORDER BY posts.created_at DESC,posts.id DESC")
}
