package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetGravatarURL(t *testing.T) {
	url := GetGravatarURL("  Someone@Example.org ", 0)
	assert.Equal(t, GetGravatarURL("someone@example.org", 200), url)
	assert.True(t, strings.HasSuffix(url, "?s=200&d=identicon"))
}

func TestFormatStoryContent(t *testing.T) {
	out := FormatStoryContent("Hello <b>there</b>\nsecond line\r\n\r\n\nNext")
	assert.Equal(t,
		`<p class="mb-4 leading-relaxed">Hello &lt;b&gt;there&lt;/b&gt;<br>second line</p><p class="mb-4 leading-relaxed">Next</p>`,
		string(out))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 10))
	assert.Equal(t, "a story about...", Excerpt("a story about resilience", 16))
}
