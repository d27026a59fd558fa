package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var wordRegex = regexp.MustCompile(`\b\w+\b`)

// stopWords are filtered out of instruction text before keyword matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {}, "be": {},
	"been": {}, "being": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "should": {}, "could": {},
	"may": {}, "might": {}, "must": {}, "can": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "i": {}, "you": {}, "he": {}, "she": {},
	"it": {}, "we": {}, "they": {},
}

// ExtractKeywords tokenizes text into lowercase words, dropping stop words and
// words shorter than 3 characters.
func ExtractKeywords(text string) []string {
	words := wordRegex.FindAllString(strings.ToLower(text), -1)
	var keywords []string
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if len(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// TruncateText truncates text to maxLength characters, appending an ellipsis.
func TruncateText(text string, maxLength int) string {
	if len(text) <= maxLength {
		return text
	}
	return text[:maxLength] + "..."
}

// EstimateTokens gives a rough token count estimate (1 token ~= 4 chars).
func EstimateTokens(text string) int {
	return len(text) / 4
}

// FormatFileSize formats a byte count in human readable form.
func FormatFileSize(sizeBytes int64) string {
	size := float64(sizeBytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024.0 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", size)
}

// Capitalize returns s with its first letter upper-cased.
// Using golang.org/x/text/cases for robust capitalization, as strings.Title is deprecated.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	caser := cases.Title(language.English)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	fields[0] = caser.String(fields[0])
	return strings.Join(fields, " ")
}

// GenerateRequestHash generates a SHA256 hash for a given set of instructions.
func GenerateRequestHash(instructions string) string {
	hash := sha256.Sum256([]byte(instructions))
	return hex.EncodeToString(hash[:])
}
