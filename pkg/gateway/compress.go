package gateway

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultCompressionThreshold is the prompt length, in characters, above
	// which compression applies.
	DefaultCompressionThreshold = 4000

	// DefaultTargetRatio is the fraction of the original length compression
	// aims for.
	DefaultTargetRatio = 0.6
)

// boilerplatePatterns match whole lines that carry no task content.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:page\s+\d+(?:\s+of\s+\d+)?|\d+\s*/\s*\d+)\s*$`),
	regexp.MustCompile(`(?i)^\s*table of contents\s*$`),
	regexp.MustCompile(`(?i)all rights reserved`),
	regexp.MustCompile(`(?i)^\s*(?:copyright|©)\s`),
	regexp.MustCompile(`(?i)forward[- ]looking statements?`),
	regexp.MustCompile(`(?i)safe harbor`),
	regexp.MustCompile(`(?i)unsubscribe|click here|view in (?:your )?browser`),
	regexp.MustCompile(`^\s*[-=_*#~.]{3,}\s*$`),
}

// Compress shortens prompt toward targetRatio of its length when it is longer
// than threshold characters. It first drops boilerplate lines and repeated
// lines, then, if still over target, removes the middle and leaves a marker.
// The head and tail, where task instructions and output-format requirements
// usually sit, are kept. The boolean reports whether prompt changed.
func Compress(prompt string, targetRatio float64, threshold int) (string, bool) {
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}
	if targetRatio <= 0 || targetRatio > 1 {
		targetRatio = DefaultTargetRatio
	}

	n := utf8.RuneCountInString(prompt)
	if n <= threshold {
		return prompt, false
	}
	target := int(float64(n) * targetRatio)

	stripped := stripBoilerplate(prompt)
	if utf8.RuneCountInString(stripped) <= target {
		return stripped, stripped != prompt
	}

	return truncateMiddle(stripped, target), true
}

func stripBoilerplate(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	blank := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank && len(kept) > 0 {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		if isBoilerplate(line) || seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		kept = append(kept, line)
		blank = false
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}

func isBoilerplate(line string) bool {
	for _, re := range boilerplatePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// truncateMiddle keeps the first and last halves of a target-length budget.
func truncateMiddle(text string, target int) string {
	runes := []rune(text)
	if len(runes) <= target {
		return text
	}
	head := target / 2
	tail := target - head
	omitted := len(runes) - head - tail

	var sb strings.Builder
	sb.WriteString(string(runes[:head]))
	fmt.Fprintf(&sb, "\n[... %d characters omitted ...]\n", omitted)
	sb.WriteString(string(runes[len(runes)-tail:]))
	return sb.String()
}
