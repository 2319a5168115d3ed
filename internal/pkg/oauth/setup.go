package oauth

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/redis/go-redis/v9"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

const ProviderGoogle = "google"

// CallbackPath is shared by the member and the admin Google sign-in; the
// admin flow marks itself in the session before redirecting.
const CallbackPath = "/auth/google/callback"

// Setup registers the Google provider and keeps OAuth state in Redis DB 2.
// Without GOOGLE_CLIENT_ID the provider is not registered and Enabled is false.
func Setup(rdb *redis.Client) {
	clientID := env.GetEnv("GOOGLE_CLIENT_ID", "")
	if clientID == "" {
		log.Warn("[OAuth] GOOGLE_CLIENT_ID not set, Google sign-in disabled")
		return
	}

	goth.UseProviders(
		google.New(
			clientID,
			env.GetEnv("GOOGLE_CLIENT_SECRET", ""),
			env.PublicBaseURL()+CallbackPath,
			"email", "profile",
		),
	)

	host, port := "127.0.0.1", 6379
	var username, password string
	if rdb != nil {
		opts := rdb.Options()
		username, password = opts.Username, opts.Password
		if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
			host = h
			if parsed, e := strconv.Atoi(p); e == nil {
				port = parsed
			}
		}
	}

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Username: username,
			Password: password,
			Database: 2,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     time.Hour,
	})
}

// Enabled reports whether Google sign-in was configured.
func Enabled() bool {
	_, err := goth.GetProvider(ProviderGoogle)
	return err == nil
}
