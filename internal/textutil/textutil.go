// Package textutil holds the text cleanup and tokenization primitives
// shared by scoring, dedupe and validation.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wsRE    = regexp.MustCompile(`\s+`)
	tagRE   = regexp.MustCompile(`<[^>]+>`)
	cdataRE = regexp.MustCompile(`(?i)^<!\[CDATA\[([\s\S]*?)\]\]>$`)

	breakingPrefixRE = regexp.MustCompile(`(?i)^\s*(?:\[|\()?(속보|breaking|just in)(?:\]|\))?[\s:：-]*`)
	labelPrefixRE    = regexp.MustCompile(`(?i)^\s*(?:\[|\()?(단독|종합|상보|단신|해설|인터뷰|기획|특집|분석)(?:\]|\))?[\s:：-]*`)
	trailingOutletRE = regexp.MustCompile(`\s*[|\-–—·•:｜ㅣ]\s*[^|\-–—·•:｜ㅣ]+$`)

	sourceSuffixRE = regexp.MustCompile(`(일보|신문|뉴스|방송|미디어|TV|tv)$`)
	digitsOnlyRE   = regexp.MustCompile(`^\d+$`)
)

var entityMap = map[string]string{
	"&amp;":  "&",
	"&lt;":   "<",
	"&gt;":   ">",
	"&quot;": `"`,
	"&#39;":  "'",
	"&nbsp;": " ",
}

func DecodeHTMLEntities(value string) string {
	if value == "" {
		return ""
	}
	out := value
	for entity, replacement := range entityMap {
		out = strings.ReplaceAll(out, entity, replacement)
	}
	return out
}

func StripCDATA(value string) string {
	if value == "" {
		return ""
	}
	return cdataRE.ReplaceAllString(value, "$1")
}

// CleanText strips CDATA wrappers, HTML entities and tags, and collapses
// whitespace. Every user-visible string passes through here.
func CleanText(value string) string {
	if value == "" {
		return ""
	}
	decoded := DecodeHTMLEntities(StripCDATA(value))
	return strings.TrimSpace(wsRE.ReplaceAllString(tagRE.ReplaceAllString(decoded, " "), " "))
}

// TrimTitleNoise removes breaking/label prefixes and trailing outlet
// names from a headline. A detected breaking prefix is re-attached as
// the plain marker "속보" so downstream breaking detection still fires.
func TrimTitleNoise(title, sourceName string) string {
	if title == "" {
		return ""
	}
	normalized := CleanText(title)
	hasBreakingPrefix := breakingPrefixRE.MatchString(normalized)

	out := breakingPrefixRE.ReplaceAllString(normalized, "")
	out = labelPrefixRE.ReplaceAllString(out, "")
	out = strings.TrimSpace(out)
	out = strings.TrimSpace(trailingOutletRE.ReplaceAllString(out, ""))

	if sourceName != "" {
		escaped := regexp.QuoteMeta(sourceName)
		re, err := regexp.Compile(`(?i)(?:\s*[|\-–—·•:｜ㅣ]\s*)?` + escaped + `\s*$`)
		if err == nil {
			out = strings.TrimSpace(re.ReplaceAllString(out, ""))
		}
	}

	if hasBreakingPrefix && out != "" {
		out = "속보 " + out
	}
	return out
}

// SplitSummaryLines splits a feed summary into up to three distinct
// display lines, breaking on sentence enders, middots and pipes.
func SplitSummaryLines(summary string) []string {
	cleaned := CleanText(summary)
	if cleaned == "" {
		return nil
	}

	raw := splitSentences(cleaned)
	var unique []string
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if containsString(unique, line) {
			continue
		}
		unique = append(unique, line)
		if len(unique) >= 3 {
			break
		}
	}

	if len(unique) == 0 {
		return []string{truncateRunes(cleaned, 160)}
	}
	return unique
}

// SplitSentences returns all non-empty sentences of a text, without
// the three-line cap of SplitSummaryLines.
func SplitSentences(text string) []string {
	var out []string
	for _, line := range splitSentences(CleanText(text)) {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// splitSentences breaks after ., !, ? or 。 followed by whitespace, and
// on middots, pipes and newlines.
func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '·', '|', '\n':
			out = append(out, b.String())
			b.Reset()
			continue
		}
		b.WriteRune(r)
		if (r == '.' || r == '!' || r == '?' || r == '。') &&
			i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}

// TokenizeForDedupe lowercases and keeps only latin letters, digits and
// hangul, splitting everything else.
func TokenizeForDedupe(value string) []string {
	cleaned := strings.ToLower(CleanText(value))
	if cleaned == "" {
		return nil
	}
	var b strings.Builder
	for _, r := range cleaned {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (r >= '가' && r <= '힣') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	fields := strings.Fields(b.String())
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// NormalizeSourceName reduces an outlet name to its first token with
// common media suffixes (일보/신문/뉴스/...) stripped.
func NormalizeSourceName(sourceName string) string {
	if sourceName == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range sourceName {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '가' && r <= '힣') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	normalized := strings.TrimSpace(wsRE.ReplaceAllString(b.String(), " "))
	if normalized == "" {
		return ""
	}

	token := normalized
	if idx := strings.IndexByte(normalized, ' '); idx >= 0 {
		token = normalized[:idx]
	}
	stripped := strings.TrimSpace(sourceSuffixRE.ReplaceAllString(token, ""))
	if stripped == "" {
		return normalized
	}
	return stripped
}

// EstimateReadTimeSec assumes 220 words/minute, clamped to [10,120].
func EstimateReadTimeSec(text string) int {
	cleaned := CleanText(text)
	if cleaned == "" {
		return 10
	}
	words := len(strings.Fields(cleaned))
	sec := (words*60 + 219) / 220
	if sec < 10 {
		return 10
	}
	if sec > 120 {
		return 120
	}
	return sec
}

// IsNumericToken reports whether a token is digits only.
func IsNumericToken(token string) bool {
	return digitsOnlyRE.MatchString(token)
}

// HasHangul reports whether the token contains any hangul syllable.
func HasHangul(token string) bool {
	for _, r := range token {
		if r >= '가' && r <= '힣' {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
