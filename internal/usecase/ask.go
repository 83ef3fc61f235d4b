package usecase

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

const defaultMaxQuestion = 2000

// LLMClient is the part of inference.Client the use cases depend on.
type LLMClient interface {
	Complete(ctx context.Context, userMessage, systemMessage string) (string, error)
	Model() string
}

type AskService struct {
	llm            LLMClient
	maxQuestionLen int
}

type AskInput struct {
	Question string
	// SystemMessage sets the persona for this request only; empty uses the
	// client's default.
	SystemMessage string
}

type AskOutput struct {
	Answer string
	Model  string
}

func NewAskService(llm LLMClient, maxQuestionLen int) (*AskService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	if maxQuestionLen <= 0 {
		maxQuestionLen = defaultMaxQuestion
	}
	return &AskService{llm: llm, maxQuestionLen: maxQuestionLen}, nil
}

func (s *AskService) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return AskOutput{}, newError(ErrorInvalidInput, "empty_question", nil)
	}
	if utf8.RuneCountInString(question) > s.maxQuestionLen {
		return AskOutput{}, newError(ErrorInvalidInput, "question_too_long", nil)
	}

	answer, err := s.llm.Complete(ctx, question, strings.TrimSpace(in.SystemMessage))
	if err != nil {
		return AskOutput{}, inferenceError(err)
	}
	return AskOutput{Answer: answer, Model: s.llm.Model()}, nil
}
