package sync

import (
	"strings"

	"github.com/vineelsai26/ghnotion/internal/notion"
)

// maxDescriptionLength is Notion's rich text content limit per fragment.
const maxDescriptionLength = 2000

// MapProperties converts a canonical issue into Notion page properties.
// Pure and deterministic; assignees are collected but intentionally not
// mapped to any destination field.
func MapProperties(issue Issue) notion.Properties {
	org := issue.Repo
	if idx := strings.Index(issue.Repo, "/"); idx >= 0 {
		org = issue.Repo[:idx]
	}

	return notion.Properties{
		"Name":        notion.Title(issue.Title),
		"Status":      notion.Checkbox(issue.Closed),
		"ORG":         notion.Select(org),
		"Repo":        notion.Select(issue.Repo),
		"Issue Id":    notion.Number(issue.Number),
		"URL":         notion.URL(issue.URL),
		"Tags":        notion.MultiSelect(issue.Kind()),
		"Description": notion.Text(truncateBody(issue.Body)),
		"Created At":  notion.DateStart(issue.CreatedAt),
		"Updated At":  notion.DateStart(issue.UpdatedAt),
		"Created By":  notion.Text(issue.CreatedBy.Login),
	}
}

// truncateBody limits the body to the destination text limit. The cut is
// by character count, not bytes, so a multi-byte sequence is never split.
// A nil body maps to an empty string.
func truncateBody(body *string) string {
	if body == nil {
		return ""
	}
	runes := []rune(*body)
	if len(runes) <= maxDescriptionLength {
		return *body
	}
	return string(runes[:maxDescriptionLength])
}
