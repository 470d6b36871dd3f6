package services

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	goaway "github.com/TwiN/go-away"
)

const (
	// MaxContentLength bounds post and reply text after trimming.
	MaxContentLength = 300
	// MinPostableLength is the substance threshold: trimmed post content
	// must be strictly longer than this to be postable.
	MinPostableLength = 10
)

var unsafeDomains = []string{"porn", "xvideos", "redtube", "onlyfans", "nsfw", "lush"}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL prefixes https:// when no scheme is given.
func NormalizeURL(raw string) string {
	if !schemeRe.MatchString(raw) {
		return "https://" + raw
	}
	return raw
}

// IsSafeURL reports whether a normalized URL avoids the NSFW domain
// blocklist. A URL that cannot be parsed is unsafe.
func IsSafeURL(normalized string) bool {
	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	hostname := strings.ToLower(parsed.Hostname())
	for _, blocked := range unsafeDomains {
		if hostname == blocked || hostname == "www."+blocked || strings.HasSuffix(hostname, "."+blocked) {
			return false
		}
	}
	return true
}

// ValidateText enforces the length cap and the profanity lexicon on
// trimmed text. Lengths count characters, not bytes.
func ValidateText(text string, maxLen int) error {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) > maxLen {
		return ErrTooLong
	}
	if goaway.IsProfane(trimmed) {
		return ErrProfanity
	}
	return nil
}

// ValidateSourcePair enforces the optional source metadata rules: title and
// URL both present or both absent, a clean title, and a safe link.
func ValidateSourcePair(title, rawURL string) error {
	title = strings.TrimSpace(title)
	rawURL = strings.TrimSpace(rawURL)

	if (title != "" && rawURL == "") || (title == "" && rawURL != "") {
		return ErrSourcePair
	}
	if title != "" && goaway.IsProfane(title) {
		return ErrProfanity
	}
	if rawURL != "" && !IsSafeURL(NormalizeURL(rawURL)) {
		return ErrUnsafeLink
	}
	return nil
}

// ValidatePost runs the full post rule chain in order, first failure wins,
// ending with the substance threshold that gates submission.
func ValidatePost(content, sourceTitle, sourceURL string) error {
	trimmed := strings.TrimSpace(content)

	if err := ValidateText(trimmed, MaxContentLength); err != nil {
		return err
	}
	if err := ValidateSourcePair(sourceTitle, sourceURL); err != nil {
		return err
	}
	if utf8.RuneCountInString(trimmed) <= MinPostableLength {
		return ErrTooShort
	}
	return nil
}
