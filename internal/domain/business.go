package domain

import (
	"strings"
	"time"
	"unicode"
)

// Business is a directory listing that a description is generated for.
type Business struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// Slug returns a lowercase, hyphen-separated key derived from the business name.
func (b Business) Slug() string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(b.Name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return sb.String()
}

// Description is a generated business description as persisted in the store.
type Description struct {
	ID           string
	BusinessSlug string
	BusinessName string
	BusinessType string
	Location     string
	Text         string
	Model        string
	CreatedAt    time.Time
}
