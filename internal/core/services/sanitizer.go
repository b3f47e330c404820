package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

var (
	fencePattern     = regexp.MustCompile("(?s)```(?:SQLQuery|sql|SQL|mysql|postgresql)?\\s*(.*?)\\s*```")
	labelPattern     = regexp.MustCompile(`(?i)^(?:SQL\s*Query|SQLQuery|MySQL|PostgreSQL|SQL)\s*:\s*`)
	statementPattern = regexp.MustCompile(`(?is)(SELECT.*?;)`)
	backtickPattern  = regexp.MustCompile("`([^`]*)`")
	spacePattern     = regexp.MustCompile(`\s+`)
	keywordPattern   = regexp.MustCompile(`(?i)\s*\b(SELECT|FROM|WHERE|GROUP BY)\b`)
	blankLinePattern = regexp.MustCompile(`\n\s*\n`)

	firstWordPattern  = regexp.MustCompile(`^(?i)SELECT\b`)
	writeWordPattern  = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|UPSERT|MERGE|DROP|ALTER|CREATE|TRUNCATE|GRANT|REVOKE|COPY|CALL|EXECUTE|INTO|VACUUM|LOCK|SET)\b`)
	commentPattern    = regexp.MustCompile(`--|/\*`)
	maxSanitizePasses = 16
)

// SanitizeQuery cleans model output into a single formatted statement. It
// strips markdown fences and language labels, keeps the first SELECT ... ;
// statement when commentary follows it, drops backtick quoting, collapses
// whitespace and starts SELECT, FROM, WHERE and GROUP BY on their own lines.
//
// The result is a fixed point: SanitizeQuery(SanitizeQuery(x)) == SanitizeQuery(x).
func SanitizeQuery(text string) string {
	current := text
	for i := 0; i < maxSanitizePasses; i++ {
		next := sanitizeOnce(current)
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func sanitizeOnce(text string) string {
	s := strings.TrimSpace(text)

	for {
		stripped := fencePattern.ReplaceAllString(s, "$1")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}

	for {
		stripped := labelPattern.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = strings.TrimSpace(stripped)
	}

	if m := statementPattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	s = backtickPattern.ReplaceAllString(s, "$1")
	s = spacePattern.ReplaceAllString(s, " ")
	s = keywordPattern.ReplaceAllString(s, "\n$1")
	s = strings.TrimSpace(s)
	return blankLinePattern.ReplaceAllString(s, "\n")
}

// CheckReadOnly rejects anything that is not one read-only SELECT statement.
// The query should already be sanitized.
func CheckReadOnly(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("%w: empty query", domain.ErrUnsafeQuery)
	}
	if !firstWordPattern.MatchString(q) {
		return fmt.Errorf("%w: query must start with SELECT", domain.ErrUnsafeQuery)
	}

	body := strings.TrimSuffix(q, ";")
	if strings.Contains(body, ";") {
		return fmt.Errorf("%w: multiple statements", domain.ErrUnsafeQuery)
	}
	if commentPattern.MatchString(body) {
		return fmt.Errorf("%w: comments are not allowed", domain.ErrUnsafeQuery)
	}
	if m := writeWordPattern.FindString(withoutLiterals(body)); m != "" {
		return fmt.Errorf("%w: %s is not allowed", domain.ErrUnsafeQuery, strings.ToUpper(m))
	}
	return nil
}

// withoutLiterals blanks out single-quoted string literals so keywords in
// data values do not trip the write-keyword check.
func withoutLiterals(q string) string {
	var b strings.Builder
	inLiteral := false
	for _, r := range q {
		if r == '\'' {
			inLiteral = !inLiteral
			b.WriteRune(' ')
			continue
		}
		if inLiteral {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
