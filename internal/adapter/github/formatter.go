package github

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kmorrill/review-placer/internal/domain"
)

// maxBodyTokens caps a single comment body. GitHub truncates very long
// review comments server-side; trimming client-side keeps the marker
// line intact.
const maxBodyTokens = 800

const truncationNotice = "\n\n_…truncated_"

var (
	defaultEncoder *tiktoken.Tiktoken
	encoderOnce    sync.Once
	encoderErr     error

	titleCaser = cases.Title(language.English)
)

// getEncoder returns the shared tiktoken encoder, initializing it lazily.
func getEncoder() (*tiktoken.Tiktoken, error) {
	encoderOnce.Do(func() {
		defaultEncoder, encoderErr = tiktoken.GetEncoding("cl100k_base")
	})
	return defaultEncoder, encoderErr
}

// FormatCommentBody renders a placed finding as a GitHub-flavored
// Markdown comment. It is the default placement.Formatter; callers may
// inject their own rendering instead.
//
// The trailing fingerprint marker lets later runs recognize comments
// this tool already posted.
func FormatCommentBody(p domain.PlacedFinding) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("**%s** | `%s`", titleCaser.String(strings.ToLower(string(p.Severity))), p.RuleID))
	if p.Placement == domain.PlacementAdjusted {
		sb.WriteString(fmt.Sprintf(" | moved from line %d", p.DesiredLine))
	}
	sb.WriteString("\n\n")

	if p.Title != "" {
		sb.WriteString("**")
		sb.WriteString(p.Title)
		sb.WriteString("**\n\n")
	}

	sb.WriteString(truncateBody(p.Body))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("<!-- rp:%s -->", p.Fingerprint()))

	return sb.String()
}

// truncateBody trims pathological bodies to maxBodyTokens using the
// cl100k_base encoding. If the tokenizer is unavailable it falls back
// to a character-based estimate (~4 chars per token).
func truncateBody(body string) string {
	enc, err := getEncoder()
	if err != nil {
		if len(body) > maxBodyTokens*4 {
			return body[:maxBodyTokens*4] + truncationNotice
		}
		return body
	}

	tokens := enc.Encode(body, nil, nil)
	if len(tokens) <= maxBodyTokens {
		return body
	}
	return enc.Decode(tokens[:maxBodyTokens]) + truncationNotice
}
