package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"limpopo-ai/internal/domain"
)

// Transport performs one remote chat-completion call.
type Transport interface {
	CreateChatCompletion(ctx context.Context, req domain.ChatRequest) (domain.ChatCompletion, error)
}

// openAITransport talks to the endpoint through the OpenAI SDK, which GitHub
// Models accepts as-is: requests go to <endpoint>/chat/completions with the
// credential as a bearer token.
type openAITransport struct {
	client openai.Client
}

func newOpenAITransport(endpoint, credential string, httpClient *http.Client) *openAITransport {
	return &openAITransport{
		client: openai.NewClient(
			option.WithBaseURL(endpoint),
			option.WithAPIKey(credential),
			option.WithHTTPClient(httpClient),
			option.WithMaxRetries(0),
		),
	}
}

func (t *openAITransport) CreateChatCompletion(ctx context.Context, req domain.ChatRequest) (domain.ChatCompletion, error) {
	messages, err := toMessageParams(req.Messages)
	if err != nil {
		return domain.ChatCompletion{}, newError(KindInvalidInput, err)
	}

	res, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	})
	if err != nil {
		return domain.ChatCompletion{}, classify(err)
	}
	if res == nil {
		return domain.ChatCompletion{}, newError(KindMalformed, errors.New("empty response body"))
	}

	out := domain.ChatCompletion{
		ID:      res.ID,
		Model:   res.Model,
		Choices: make([]domain.ChatChoice, 0, len(res.Choices)),
	}
	for _, ch := range res.Choices {
		out.Choices = append(out.Choices, domain.ChatChoice{
			Index: int(ch.Index),
			Message: domain.ChatMessage{
				Role:    domain.RoleAssistant,
				Content: ch.Message.Content,
			},
			FinishReason: string(ch.FinishReason),
		})
	}
	return out, nil
}

func toMessageParams(msgs []domain.ChatMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case domain.RoleUser:
			params = append(params, openai.UserMessage(m.Content))
		case domain.RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			return nil, fmt.Errorf("unsupported message role %q", m.Role)
		}
	}
	return params, nil
}

// classify maps SDK and network failures onto error kinds.
func classify(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, StatusCode: apiErr.StatusCode, Err: err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTransport, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return newError(KindTransport, err)
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return newError(KindMalformed, err)
	}
	return newError(KindUnknown, err)
}
