package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ourstoryourvoice/osov/internal/pkg/cache"
	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

// Session keys
const (
	KeyUserID        = "user_id"
	KeyRole          = "role"
	KeyViewedStories = "viewed_stories"
)

// NewSessionStore stores sessions in Redis DB 1, next to the cache in DB 0.
func NewSessionStore() *session.Store {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1,
		Reset:    false,
	})

	return session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: "Lax",
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:session_id",
	})
}

// Login binds the user to the session and rotates the session id.
func Login(c *fiber.Ctx, store *session.Store, userID uint, role string) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("regenerate session: %w", err)
	}
	sess.Set(KeyUserID, userID)
	sess.Set(KeyRole, role)
	return sess.Save()
}

func Logout(c *fiber.Ctx, store *session.Store) error {
	sess, err := store.Get(c)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	return sess.Destroy()
}

// UserID returns 0 for anonymous sessions.
func UserID(c *fiber.Ctx, store *session.Store) uint {
	sess, err := store.Get(c)
	if err != nil {
		return 0
	}
	switch v := sess.Get(KeyUserID).(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case float64:
		return uint(v)
	}
	return 0
}

// MarkStoryViewed records the story in the session and reports whether this
// is the first view of it in the session.
func MarkStoryViewed(c *fiber.Ctx, store *session.Store, storyID uint) bool {
	sess, err := store.Get(c)
	if err != nil {
		return false
	}

	id := strconv.FormatUint(uint64(storyID), 10)
	viewed, _ := sess.Get(KeyViewedStories).(string)
	for _, v := range strings.Split(viewed, ",") {
		if v == id {
			return false
		}
	}

	if viewed == "" {
		viewed = id
	} else {
		viewed += "," + id
	}
	sess.Set(KeyViewedStories, viewed)
	return sess.Save() == nil
}
