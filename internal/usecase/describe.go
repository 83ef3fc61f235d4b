package usecase

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"limpopo-ai/internal/domain"
)

const (
	maxBusinessFieldLen = 200
	maxHistoryItems     = 50
)

type DescriptionStore interface {
	SaveDescription(ctx context.Context, d domain.Description) error
	ListDescriptions(ctx context.Context, slug string, limit int) ([]domain.Description, error)
}

// DescriptionService writes directory copy for businesses. The store is
// optional; without one descriptions are generated but not kept.
type DescriptionService struct {
	llm   LLMClient
	store DescriptionStore
	now   func() time.Time
}

type DescribeOutput struct {
	ID          string
	Description string
	Saved       bool
}

func NewDescriptionService(llm LLMClient, store DescriptionStore) (*DescriptionService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	return &DescriptionService{
		llm:   llm,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *DescriptionService) Describe(ctx context.Context, b domain.Business) (DescribeOutput, error) {
	if reason, ok := validateBusiness(b); !ok {
		return DescribeOutput{}, newError(ErrorInvalidInput, reason, nil)
	}

	text, err := s.llm.Complete(ctx, descriptionUserMessage(b), descriptionSystemMessage())
	if err != nil {
		return DescribeOutput{}, inferenceError(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DescribeOutput{}, newError(ErrorUpstream, "inference_empty_description", nil)
	}

	out := DescribeOutput{ID: newUUID(), Description: text}
	if s.store == nil {
		return out, nil
	}

	err = s.store.SaveDescription(ctx, domain.Description{
		ID:           out.ID,
		BusinessSlug: b.Slug(),
		BusinessName: strings.TrimSpace(b.Name),
		BusinessType: strings.TrimSpace(b.Type),
		Location:     strings.TrimSpace(b.Location),
		Text:         text,
		Model:        s.llm.Model(),
		CreatedAt:    s.now(),
	})
	if err != nil {
		return DescribeOutput{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}
	out.Saved = true
	return out, nil
}

// History returns stored descriptions for a business, newest first.
func (s *DescriptionService) History(ctx context.Context, businessName string, limit int) ([]domain.Description, error) {
	if s.store == nil {
		return nil, newError(ErrorInternal, "store_not_configured", nil)
	}
	slug := domain.Business{Name: businessName}.Slug()
	if slug == "" {
		return nil, newError(ErrorInvalidInput, "empty_business", nil)
	}
	if limit <= 0 || limit > maxHistoryItems {
		limit = maxHistoryItems
	}
	descs, err := s.store.ListDescriptions(ctx, slug, limit)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_read_error", err)
	}
	return descs, nil
}

func validateBusiness(b domain.Business) (string, bool) {
	fields := []struct {
		value  string
		reason string
	}{
		{b.Name, "business_name"},
		{b.Type, "business_type"},
		{b.Location, "business_location"},
	}
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			return "empty_" + f.reason, false
		}
		if utf8.RuneCountInString(v) > maxBusinessFieldLen {
			return f.reason + "_too_long", false
		}
	}
	if (domain.Business{Name: b.Name}).Slug() == "" {
		return "invalid_business_name", false
	}
	return "", true
}

var newUUID = func() string {
	return uuid.NewString()
}
