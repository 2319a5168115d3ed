package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvPrefersLoadedFile(t *testing.T) {
	Env = map[string]string{"OSOV_TEST_KEY": "from-file"}
	t.Cleanup(func() { Env = nil })
	t.Setenv("OSOV_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("OSOV_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("OSOV_MISSING_KEY", "def"))
}

func TestGetEnvIntAndDuration(t *testing.T) {
	Env = map[string]string{
		"WORKERS":  "7",
		"BAD_INT":  "seven",
		"INTERVAL": "90s",
		"BAD_DUR":  "-1m",
	}
	t.Cleanup(func() { Env = nil })

	assert.Equal(t, 7, GetEnvInt("WORKERS", 3))
	assert.Equal(t, 3, GetEnvInt("BAD_INT", 3))
	assert.Equal(t, 90*time.Second, GetEnvDuration("INTERVAL", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("BAD_DUR", time.Minute))
}

func TestPublicBaseURL(t *testing.T) {
	Env = map[string]string{"APP_PORT": "8080"}
	t.Cleanup(func() { Env = nil })
	assert.Equal(t, "http://localhost:8080", PublicBaseURL())

	Env["PUBLIC_DOMAIN"] = "https://ourstoryourvoice.org"
	assert.Equal(t, "https://ourstoryourvoice.org", PublicBaseURL())
}
