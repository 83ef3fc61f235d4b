package usecase

import (
	"fmt"
	"strings"

	"limpopo-ai/internal/domain"
)

func descriptionSystemMessage() string {
	return strings.Join([]string{
		"You are a creative copywriter specializing in business descriptions",
		"for a local directory in Limpopo Province, South Africa. Create engaging, concise",
		"descriptions that highlight what makes each business special. Keep descriptions to",
		"2-3 sentences.",
	}, " ")
}

func descriptionUserMessage(b domain.Business) string {
	return fmt.Sprintf(
		"Generate a compelling business description for:\n"+
			"Business Name: %s\n"+
			"Type: %s\n"+
			"Location: %s, Limpopo Province\n\n"+
			"Include what makes this business special and why locals should visit.",
		normalizePromptInput(b.Name),
		normalizePromptInput(b.Type),
		normalizePromptInput(b.Location),
	)
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
