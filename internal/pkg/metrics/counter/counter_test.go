package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
)

func TestFlushAllFoldsViewsIntoStories(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	db := dbtest.New(t)

	a := &models.Story{Title: "A", Slug: "a", Summary: "s", Content: "c", Status: models.STORY_STATUS_PUBLISHED, Views: 3}
	b := &models.Story{Title: "B", Slug: "b", Summary: "s", Content: "c", Status: models.STORY_STATUS_PUBLISHED}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	c := New(rdb, db)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		require.NoError(t, c.AddStoryView(ctx, a.ID))
	}
	require.NoError(t, c.AddStoryView(ctx, b.ID))
	assert.Equal(t, int64(2), c.Pending(ctx, a.ID))

	require.NoError(t, c.FlushAll())

	var got []models.Story
	require.NoError(t, db.Order("id").Find(&got).Error)
	assert.Equal(t, 5, got[0].Views)
	assert.Equal(t, 1, got[1].Views)
	assert.Zero(t, c.Pending(ctx, a.ID))

	// nothing buffered is a no-op
	require.NoError(t, c.FlushAll())
	require.NoError(t, db.Order("id").Find(&got).Error)
	assert.Equal(t, 5, got[0].Views)
}
