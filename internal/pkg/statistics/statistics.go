package statistics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ourstoryourvoice/osov/app/repository"
)

const (
	CacheKeyDashboard = "statistics:dashboard:%s" // Format with date YYYY-MM-DD
	CacheExpiration   = 60 * time.Second
)

// Dashboard holds the headline numbers of the admin dashboard
type Dashboard struct {
	TotalUsers      int64   `json:"total_users"`
	DailyUsers      int64   `json:"daily_users"`
	PendingPartners int64   `json:"pending_partners"`
	TotalFunds      float64 `json:"total_funds"`
}

// Service reads dashboard numbers through a short-lived Redis cache.
type Service struct {
	rdb       *redis.Client
	users     repository.UserRepository
	apps      repository.ApplicationRepository
	donations repository.DonationRepository
	now       func() time.Time
}

func NewService(rdb *redis.Client, repos *repository.Repositories) *Service {
	return &Service{
		rdb:       rdb,
		users:     repos.User,
		apps:      repos.Application,
		donations: repos.Donation,
		now:       time.Now,
	}
}

// GetDashboard returns cached numbers when present, otherwise computes and
// caches them. A Redis outage only costs the cache.
func (s *Service) GetDashboard(ctx context.Context) (*Dashboard, error) {
	key := s.cacheKey()

	if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var d Dashboard
		if json.Unmarshal(raw, &d) == nil {
			return &d, nil
		}
	} else if err != redis.Nil {
		log.Warnf("[Statistics] Cache read failed: %v", err)
	}

	d, err := s.compute()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(d); err == nil {
		if err := s.rdb.Set(ctx, key, raw, CacheExpiration).Err(); err != nil {
			log.Warnf("[Statistics] Cache write failed: %v", err)
		}
	}
	return d, nil
}

// Invalidate drops today's cached numbers, e.g. after an approval. A nil
// service is a no-op.
func (s *Service) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.cacheKey()).Err(); err != nil {
		log.Warnf("[Statistics] Cache invalidation failed: %v", err)
	}
}

func (s *Service) cacheKey() string {
	return fmt.Sprintf(CacheKeyDashboard, s.now().UTC().Format("2006-01-02"))
}

func (s *Service) compute() (*Dashboard, error) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var d Dashboard
	var err error
	if d.TotalUsers, err = s.users.Count(); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if d.DailyUsers, err = s.users.CountLoggedInSince(startOfDay); err != nil {
		return nil, fmt.Errorf("count daily users: %w", err)
	}
	if d.PendingPartners, err = s.apps.CountPendingPartners(); err != nil {
		return nil, fmt.Errorf("count pending partners: %w", err)
	}
	if d.TotalFunds, err = s.donations.SumSuccess(); err != nil {
		return nil, fmt.Errorf("sum donations: %w", err)
	}
	return &d, nil
}
