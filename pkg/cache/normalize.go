package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DocumentFeaturePrefixes name the long-lived document family. Volatile
// substrings are stripped from prompts under these features.
var DocumentFeaturePrefixes = []string{"sec_", "filing_"}

var (
	punctRunPattern   = regexp.MustCompile(`([\p{P}\p{S}])[\p{P}\p{S}]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	urlPattern       = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	isoDatePattern   = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}(?:[t ]\d{1,2}:\d{2}(?::\d{2})?(?:\.\d+)?(?:z|[+-]\d{2}:?\d{2})?)?\b`)
	slashDatePattern = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`)
	nameDatePattern  = regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`)
	accessionPattern = regexp.MustCompile(`\b\d{10}-\d{2}-\d{6}\b`)
	numericIDPattern = regexp.MustCompile(`\b\d{4,}\b`)
)

// IsDocumentFeature reports whether feature belongs to the document family.
func IsDocumentFeature(feature string) bool {
	for _, prefix := range DocumentFeaturePrefixes {
		if strings.HasPrefix(feature, prefix) {
			return true
		}
	}
	return false
}

// Normalize canonicalizes prompt for key derivation.
//
// Every prompt is NFKC-normalized and has punctuation and whitespace runs
// collapsed. Document-family prompts are additionally lower-cased and have
// URLs, dates, accession numbers and numeric identifiers replaced by a space
// before whitespace is collapsed. Normalize(Normalize(x, f), f) equals
// Normalize(x, f).
func Normalize(prompt, feature string) string {
	s := norm.NFKC.String(prompt)

	if IsDocumentFeature(feature) {
		s = norm.NFKC.String(strings.ToLower(s))
		s = urlPattern.ReplaceAllString(s, " ")
		s = punctRunPattern.ReplaceAllString(s, "$1")
		for _, re := range []*regexp.Regexp{isoDatePattern, nameDatePattern, slashDatePattern, accessionPattern, numericIDPattern} {
			s = re.ReplaceAllString(s, " ")
		}
	} else {
		s = punctRunPattern.ReplaceAllString(s, "$1")
	}

	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key returns the backend key for (prompt, feature).
func Key(prompt, feature string) string {
	sum := sha256.Sum256([]byte(feature + "\x00" + Normalize(prompt, feature)))
	return "llmgw:" + feature + ":" + hex.EncodeToString(sum[:16])
}
