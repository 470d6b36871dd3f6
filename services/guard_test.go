package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePostContentBoundaries(t *testing.T) {
	longButLegal := strings.Repeat("a", 300)
	assert.NoError(t, ValidatePost(longButLegal, "", ""))

	tooLong := strings.Repeat("a", 301)
	assert.ErrorIs(t, ValidatePost(tooLong, "", ""), ErrTooLong)

	// Substance threshold: strictly more than 10 trimmed characters.
	assert.ErrorIs(t, ValidatePost("short text", "", ""), ErrTooShort)
	assert.NoError(t, ValidatePost("short text.", "", ""))

	assert.ErrorIs(t, ValidatePost("", "", ""), ErrTooShort)
	assert.ErrorIs(t, ValidatePost("   \n\t  ", "", ""), ErrTooShort)

	// Trimming happens before the length check.
	padded := "  " + strings.Repeat("a", 300) + "  "
	assert.NoError(t, ValidatePost(padded, "", ""))
}

func TestValidatePostCountsCharactersNotBytes(t *testing.T) {
	// 300 two-byte characters: within the character cap despite 600 bytes.
	assert.NoError(t, ValidatePost(strings.Repeat("é", 300), "", ""))
	assert.ErrorIs(t, ValidatePost(strings.Repeat("é", 301), "", ""), ErrTooLong)

	// The substance minimum counts characters too: ten multibyte
	// characters are still too short, eleven pass.
	assert.ErrorIs(t, ValidatePost(strings.Repeat("語", 10), "", ""), ErrTooShort)
	assert.NoError(t, ValidatePost(strings.Repeat("語", 11), "", ""))
}

func TestValidatePostProfanity(t *testing.T) {
	assert.ErrorIs(t, ValidatePost("this post is complete shit honestly", "", ""), ErrProfanity)
	assert.NoError(t, ValidatePost("this post is completely fine honestly", "", ""))
}

func TestValidateSourcePair(t *testing.T) {
	// Both absent is fine.
	assert.NoError(t, ValidateSourcePair("", ""))
	// Exactly one set is rejected.
	assert.ErrorIs(t, ValidateSourcePair("Some study", ""), ErrSourcePair)
	assert.ErrorIs(t, ValidateSourcePair("", "https://example.com"), ErrSourcePair)
	// Both set and clean is fine.
	assert.NoError(t, ValidateSourcePair("Some study", "https://example.com"))
	// Profane title is rejected even with a safe URL.
	assert.ErrorIs(t, ValidateSourcePair("total bullshit report", "https://example.com"), ErrProfanity)
	// Unsafe URL is rejected.
	assert.ErrorIs(t, ValidateSourcePair("Some study", "xvideos.com"), ErrUnsafeLink)
}

func TestIsSafeURL(t *testing.T) {
	cases := []struct {
		url  string
		safe bool
	}{
		{"https://xvideos.com", false},
		{"http://www.onlyfans.com", false},
		{"https://foo.redtube", false},
		{"https://porn.example.org", false},
		{"https://example.com", true},
		{"https://subdomain.example.com", true},
		{"not a url", false},
		{"https://", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.safe, IsSafeURL(tc.url), "url: %s", tc.url)
	}
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://example.com", NormalizeURL("example.com"))
	assert.Equal(t, "http://example.com", NormalizeURL("http://example.com"))
	assert.Equal(t, "https://example.com", NormalizeURL("https://example.com"))
	assert.Equal(t, "HTTPS://example.com", NormalizeURL("HTTPS://example.com"))
}

func TestValidateText(t *testing.T) {
	assert.NoError(t, ValidateText("a perfectly ordinary reply", MaxContentLength))
	assert.ErrorIs(t, ValidateText(strings.Repeat("b", 301), MaxContentLength), ErrTooLong)
	assert.ErrorIs(t, ValidateText("what the fuck", MaxContentLength), ErrProfanity)
}
