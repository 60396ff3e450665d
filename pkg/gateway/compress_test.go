package gateway

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCompress_BelowThresholdUnchanged(t *testing.T) {
	prompt := strings.Repeat("word ", 100)
	got, changed := Compress(prompt, 0.6, 4000)
	if changed || got != prompt {
		t.Errorf("Compress() changed a short prompt")
	}
}

func TestCompress_StripsBoilerplateAndDuplicates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Extract every ticker as JSON.\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("Page 3 of 10\n")
		sb.WriteString("This release contains forward-looking statements.\n")
		sb.WriteString("ACME reported revenue of $5B.\n")
		sb.WriteString("----------\n")
	}
	sb.WriteString("Return only the JSON object.")
	prompt := sb.String()

	got, changed := Compress(prompt, 0.6, 1000)
	if !changed {
		t.Fatal("Compress() reported no change")
	}
	want := "Extract every ticker as JSON.\nACME reported revenue of $5B.\nReturn only the JSON object."
	if got != want {
		t.Errorf("Compress() = %q, want %q", got, want)
	}
}

func TestCompress_TruncatesMiddle(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("INSTRUCTIONS: summarize.\n")
	for i := 0; i < 500; i++ {
		sb.WriteString("line ")
		sb.WriteString(strings.Repeat(string(rune('a'+i%26)), i%7+1))
		sb.WriteString(strings.Repeat("x", i))
		sb.WriteString("\n")
	}
	sb.WriteString("FORMAT: JSON")
	prompt := sb.String()

	got, changed := Compress(prompt, 0.5, 1000)
	if !changed {
		t.Fatal("Compress() reported no change")
	}
	if !strings.HasPrefix(got, "INSTRUCTIONS: summarize.") {
		t.Error("head was not kept")
	}
	if !strings.HasSuffix(got, "FORMAT: JSON") {
		t.Error("tail was not kept")
	}
	if !strings.Contains(got, "characters omitted") {
		t.Error("missing omission marker")
	}
	if n, limit := utf8.RuneCountInString(got), utf8.RuneCountInString(prompt)/2+64; n > limit {
		t.Errorf("compressed length %d exceeds %d", n, limit)
	}
}

func TestCompress_InvalidRatioUsesDefault(t *testing.T) {
	prompt := strings.Repeat("abcdefghij", 1000)
	got, changed := Compress(prompt, 7, 100)
	if !changed {
		t.Fatal("Compress() reported no change")
	}
	if n := utf8.RuneCountInString(got); n > 6100 {
		t.Errorf("compressed length %d, want about 6000", n)
	}
}
