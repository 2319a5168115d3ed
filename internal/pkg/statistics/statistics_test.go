package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourstoryourvoice/osov/app/models"
	"github.com/ourstoryourvoice/osov/app/repository"
	"github.com/ourstoryourvoice/osov/internal/pkg/database/dbtest"
)

func TestGetDashboardCachesForAMinute(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	db := dbtest.New(t)
	svc := NewService(rdb, repository.NewRepositories(db))
	ctx := context.Background()

	now := time.Now().UTC()
	u, err := models.NewUser("Ada", "L", "ada@example.org", "")
	require.NoError(t, err)
	u.LastLogin = &now
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&models.Donation{Amount: 40, Reference: "cs_a", Status: models.DONATION_STATUS_SUCCESS}).Error)
	require.NoError(t, db.Create(&models.Donation{Amount: 99, Reference: "cs_b", Status: models.DONATION_STATUS_PENDING}).Error)

	d, err := svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.TotalUsers)
	assert.Equal(t, int64(1), d.DailyUsers)
	assert.Equal(t, 40.0, d.TotalFunds)

	// served from cache until it expires or is invalidated
	require.NoError(t, db.Create(&models.Donation{Amount: 10, Reference: "cs_c", Status: models.DONATION_STATUS_SUCCESS}).Error)
	d, err = svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 40.0, d.TotalFunds)

	mr.FastForward(CacheExpiration + time.Second)
	d, err = svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50.0, d.TotalFunds)

	require.NoError(t, db.Create(&models.Donation{Amount: 5, Reference: "cs_d", Status: models.DONATION_STATUS_SUCCESS}).Error)
	svc.Invalidate(ctx)
	d, err = svc.GetDashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 55.0, d.TotalFunds)
}

func TestGetDashboardSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewService(rdb, repository.NewRepositories(dbtest.New(t)))
	mr.Close()

	d, err := svc.GetDashboard(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d.TotalUsers)
}
