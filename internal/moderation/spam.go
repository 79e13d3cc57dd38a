package moderation

import (
	"regexp"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

const (
	maxURLs        = 2
	maxRepeatedRun = 10
)

// spamPhrases are promotional or scam keywords matched as whole words
var spamPhrases = []string{
	"viagra", "cialis", "casino", "poker", "lottery", "winner", "prize",
	"click here", "buy now", "free money", "work from home",
}

var (
	urlRegex = regexp.MustCompile(`https?://[^\s]+`)

	suspiciousEmailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-z0-9]{20,}@`),
		regexp.MustCompile(`(?i)@(guerrillamail|mailinator|10minutemail|tempmail)`),
		regexp.MustCompile(`(?i)^(test|spam|xxx|admin|root)@`),
	}
)

var (
	phraseMatcher   = ahocorasick.NewStringMatcher(spamPhrases)
	phraseMatcherMu sync.Mutex
)

// IsSpam reports whether content trips the coarse spam pre-filter: more than
// two URLs, a promotional keyword, or one character repeated 11+ times.
func IsSpam(content string) bool {
	if len(urlRegex.FindAllStringIndex(content, maxURLs+1)) > maxURLs {
		return true
	}
	if containsSpamPhrase(content) {
		return true
	}
	return hasRepeatedRun(content, maxRepeatedRun+1)
}

func containsSpamPhrase(content string) bool {
	lower := strings.ToLower(content)

	// Matcher keeps per-call state
	phraseMatcherMu.Lock()
	hits := phraseMatcher.Match([]byte(lower))
	phraseMatcherMu.Unlock()

	for _, hit := range hits {
		if containsWord(lower, spamPhrases[hit]) {
			return true
		}
	}
	return false
}

// containsWord reports whether phrase occurs in s with a word boundary on
// both sides. Word characters are ASCII letters, digits and underscore.
func containsWord(s, phrase string) bool {
	for offset := 0; offset+len(phrase) <= len(s); {
		i := strings.Index(s[offset:], phrase)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(phrase)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		offset = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

// hasRepeatedRun reports whether any character other than a line break
// appears n or more times in a row
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == '\n' || r == '\r' {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

// IsSuspiciousEmail flags disposable domains and throwaway-looking addresses.
// It never changes a moderation decision.
func IsSuspiciousEmail(email string) bool {
	for _, p := range suspiciousEmailPatterns {
		if p.MatchString(email) {
			return true
		}
	}
	return false
}
