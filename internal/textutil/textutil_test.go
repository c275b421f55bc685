package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))
	assert.Equal(t, "", Truncate("hello", 0))
	assert.Equal(t, "héé", Truncate("héééé", 3))
	assert.Equal(t, "💬x", Truncate("💬xyz", 2))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 4, WordCount("why does that\thappen\n"))
}

func TestFindURLs(t *testing.T) {
	urls := FindURLs("see https://a.example/x?y=1 and http://b.example, plus ftp://c")
	assert.Equal(t, []string{"https://a.example/x?y=1", "http://b.example,"}, urls)
	assert.Empty(t, FindURLs("no links here"))
}
