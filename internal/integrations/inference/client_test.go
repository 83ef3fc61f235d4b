package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"limpopo-ai/internal/domain"
)

// fakeTransport records every request and replies with a fixed completion or error.
type fakeTransport struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
	out      domain.ChatCompletion
	err      error
}

func (f *fakeTransport) CreateChatCompletion(_ context.Context, req domain.ChatRequest) (domain.ChatCompletion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.out, f.err
}

func (f *fakeTransport) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func answer(text string) domain.ChatCompletion {
	return domain.ChatCompletion{
		ID: "chatcmpl-1",
		Choices: []domain.ChatChoice{
			{Index: 0, Message: domain.ChatMessage{Role: domain.RoleAssistant, Content: text}},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubClient(t *testing.T, ft *fakeTransport, cfg Config) *Client {
	t.Helper()
	if cfg.Credential == "" {
		cfg.Credential = "test_token_12345"
	}
	c, err := NewClient(cfg, WithTransport(ft), WithLogger(quietLogger()))
	require.NoError(t, err)
	return c
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_MissingCredential(t *testing.T) {
	for _, credential := range []string{"", "   "} {
		c, err := NewClient(Config{Credential: credential})
		require.Nil(t, c)
		require.Error(t, err)
		require.True(t, IsConfigError(err))

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, "GITHUB_TOKEN", cfgErr.Key)
		require.Contains(t, err.Error(), "GITHUB_TOKEN")
		require.Contains(t, err.Error(), "export GITHUB_TOKEN='your_token'")
	}
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(Config{Credential: "test_token_12345"})
	require.NoError(t, err)
	require.Equal(t, "https://models.github.ai/inference", c.Endpoint())
	require.Equal(t, "openai/gpt-5", c.Model())
	require.Equal(t, DefaultTimeout, c.timeout)
	require.NotNil(t, c.transport)
}

func TestNewClient_Overrides(t *testing.T) {
	ft := &fakeTransport{out: answer("ok")}
	c := newStubClient(t, ft, Config{Endpoint: "https://example.test/inference", Model: "openai/gpt-4o-mini"})
	require.Equal(t, "https://example.test/inference", c.Endpoint())
	require.Equal(t, "openai/gpt-4o-mini", c.Model())

	_, err := c.Complete(context.Background(), "X", "")
	require.NoError(t, err)
	require.Len(t, ft.requests, 1)
	require.Equal(t, "openai/gpt-4o-mini", ft.requests[0].Model)
}

func TestIsConfigError_Wrapped(t *testing.T) {
	_, err := NewClient(Config{})
	wrapped := errors.Join(errors.New("startup"), err)
	require.True(t, IsConfigError(wrapped))
	require.False(t, IsConfigError(errors.New("boom")))
}

// ---------------------------------------------------------------------------
// Client.Complete / Client.Ask with a stub transport
// ---------------------------------------------------------------------------

func TestComplete_ReturnsFirstChoice(t *testing.T) {
	ft := &fakeTransport{out: domain.ChatCompletion{Choices: []domain.ChatChoice{
		{Index: 0, Message: domain.ChatMessage{Content: "Y"}},
		{Index: 1, Message: domain.ChatMessage{Content: "other"}},
	}}}
	c := newStubClient(t, ft, Config{})

	got, err := c.Complete(context.Background(), "X", "")
	require.NoError(t, err)
	require.Equal(t, "Y", got)
	require.Equal(t, "Y", c.Ask(context.Background(), "X", ""))
}

func TestComplete_MessageOrderAndDefaultSystem(t *testing.T) {
	ft := &fakeTransport{out: answer("ok")}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), "What is the capital of France?", "  ")
	require.NoError(t, err)
	require.Equal(t, []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: DefaultSystemMessage},
		{Role: domain.RoleUser, Content: "What is the capital of France?"},
	}, ft.requests[0].Messages)
	require.Equal(t, DefaultModel, ft.requests[0].Model)
}

func TestComplete_CustomSystemMessage(t *testing.T) {
	ft := &fakeTransport{out: answer("ok")}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), "hi", "You are a copywriter.")
	require.NoError(t, err)
	require.Equal(t, "You are a copywriter.", ft.requests[0].Messages[0].Content)
}

func TestComplete_EmptyUserMessage(t *testing.T) {
	ft := &fakeTransport{out: answer("ok")}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), " \n", "")
	require.Error(t, err)
	require.Equal(t, KindInvalidInput, KindOf(err))
	require.Zero(t, ft.calls(), "no request for invalid input")
}

func TestComplete_TransportFailure(t *testing.T) {
	ft := &fakeTransport{err: errors.New("connection reset by peer")}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), "X", "")
	require.Error(t, err)
	require.Equal(t, KindTransport, KindOf(err))
	require.ErrorIs(t, err, ft.err)
}

func TestComplete_KeepsClassifiedTransportError(t *testing.T) {
	ft := &fakeTransport{err: &Error{Kind: KindStatus, StatusCode: 401, Err: errors.New("bad credentials")}}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), "X", "")
	var infErr *Error
	require.ErrorAs(t, err, &infErr)
	require.Equal(t, KindStatus, infErr.Kind)
	require.Equal(t, 401, infErr.HTTPStatusCode())
}

func TestComplete_NoChoices(t *testing.T) {
	ft := &fakeTransport{out: domain.ChatCompletion{}}
	c := newStubClient(t, ft, Config{})

	_, err := c.Complete(context.Background(), "X", "")
	require.Error(t, err)
	require.Equal(t, KindEmptyResponse, KindOf(err))
	require.Contains(t, err.Error(), "no choices")
}

func TestAsk_SwallowsFailures(t *testing.T) {
	cases := []struct {
		name string
		ft   *fakeTransport
		user string
	}{
		{name: "transport error", ft: &fakeTransport{err: errors.New("dial tcp: i/o timeout")}, user: "X"},
		{name: "status error", ft: &fakeTransport{err: &Error{Kind: KindStatus, StatusCode: 401}}, user: "X"},
		{name: "no choices", ft: &fakeTransport{}, user: "X"},
		{name: "empty question", ft: &fakeTransport{out: answer("unused")}, user: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newStubClient(t, tc.ft, Config{})
			got := c.Ask(context.Background(), tc.user, "")
			require.True(t, strings.HasPrefix(got, "Error getting AI response: "), got)
		})
	}
}

func TestAsk_LogsSwallowedFailure(t *testing.T) {
	var buf bytes.Buffer
	ft := &fakeTransport{err: errors.New("upstream exploded")}
	c, err := NewClient(Config{Credential: "test_token_12345"},
		WithTransport(ft),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	require.NoError(t, err)

	got := c.Ask(context.Background(), "X", "")
	require.Equal(t, ErrorPrefix+"inference: transport: upstream exploded", got)
	require.Contains(t, buf.String(), "inference call failed")
	require.Contains(t, buf.String(), "kind=transport")
}

func TestAsk_Idempotent(t *testing.T) {
	ft := &fakeTransport{out: answer("Polokwane")}
	c := newStubClient(t, ft, Config{Model: "openai/gpt-4o"})

	first := c.Ask(context.Background(), "Capital of Limpopo?", "Be brief.")
	second := c.Ask(context.Background(), "Capital of Limpopo?", "Be brief.")
	require.Equal(t, first, second)
	require.Equal(t, ft.requests[0], ft.requests[1])
	require.Equal(t, DefaultEndpoint, c.Endpoint())
	require.Equal(t, "openai/gpt-4o", c.Model())
}

func TestAsk_Concurrent(t *testing.T) {
	ft := &fakeTransport{out: answer("ok")}
	c := newStubClient(t, ft, Config{})

	results := make([]string, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Ask(context.Background(), "ping", "")
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, "ok", r)
	}
	require.Equal(t, 16, ft.calls())
}

func TestRespond(t *testing.T) {
	_, err := Respond(context.Background(), Config{}, "X", "")
	require.True(t, IsConfigError(err))

	ft := &fakeTransport{out: answer("Y")}
	got, err := Respond(context.Background(), Config{Credential: "tok"}, "X", "", WithTransport(ft), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.Equal(t, "Y", got)

	ft = &fakeTransport{err: errors.New("down")}
	got, err = Respond(context.Background(), Config{Credential: "tok"}, "X", "", WithTransport(ft), WithLogger(quietLogger()))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, ErrorPrefix))
}

// ---------------------------------------------------------------------------
// SDK transport against a local server
// ---------------------------------------------------------------------------

type wireRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newServerClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := NewClient(
		Config{Endpoint: endpoint, Model: "openai/gpt-mock", Credential: "ghp_test"},
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	return c
}

func TestSDKTransport_HappyPath(t *testing.T) {
	var got wireRequest
	var gotPath, gotAuth, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1670000000,
			"model": "openai/gpt-mock",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": { "role": "assistant", "content": "Paris" }
			}]
		}`))
	}))
	defer srv.Close()

	c := newServerClient(t, srv.URL+"/inference")
	resp, err := c.Complete(context.Background(), "What is the capital of France?", "")
	require.NoError(t, err)
	require.Equal(t, "Paris", resp)

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/inference/chat/completions", gotPath)
	require.Equal(t, "Bearer ghp_test", gotAuth)
	require.Equal(t, "openai/gpt-mock", got.Model)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Equal(t, DefaultSystemMessage, got.Messages[0].Content)
	require.Equal(t, "user", got.Messages[1].Role)
	require.Equal(t, "What is the capital of France?", got.Messages[1].Content)
}

func TestSDKTransport_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		var hits int
		var mu sync.Mutex
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits++
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","code":"failure"}}`))
		}))

		c := newServerClient(t, srv.URL)
		_, err := c.Complete(context.Background(), "hi", "")
		require.Error(t, err)

		var infErr *Error
		require.ErrorAs(t, err, &infErr)
		require.Equal(t, KindStatus, infErr.Kind)
		require.Equal(t, status, infErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "unexpected status")

		mu.Lock()
		require.Equal(t, 1, hits, "requests are never retried")
		mu.Unlock()
		srv.Close()
	}
}

func TestSDKTransport_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newServerClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "hi", "")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(c.Ask(context.Background(), "hi", ""), ErrorPrefix))
}

func TestSDKTransport_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	c := newServerClient(t, srv.URL)
	_, err := c.Complete(context.Background(), "hi", "")
	require.Error(t, err)
	require.Equal(t, KindEmptyResponse, KindOf(err))
}

func TestSDKTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := NewClient(
		Config{Endpoint: srv.URL, Credential: "ghp_test"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "hi", "")
	require.Error(t, err)
	require.True(t, strings.HasPrefix(c.Ask(context.Background(), "hi", ""), ErrorPrefix))
}

func TestSDKTransport_ConnectionRefused(t *testing.T) {
	c, err := NewClient(
		Config{Endpoint: "http://127.0.0.1:1", Credential: "ghp_test"},
		WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	got := c.Ask(context.Background(), "hi", "")
	require.True(t, strings.HasPrefix(got, ErrorPrefix), got)
}

func TestClassify(t *testing.T) {
	require.Equal(t, KindTransport, classify(context.DeadlineExceeded).Kind)
	require.Equal(t, KindTransport, classify(context.Canceled).Kind)

	var syntaxErr *json.SyntaxError
	require.ErrorAs(t, json.Unmarshal([]byte(`{`), new(map[string]any)), &syntaxErr)
	require.Equal(t, KindMalformed, classify(syntaxErr).Kind)

	require.Equal(t, KindUnknown, classify(errors.New("strange")).Kind)
}

func TestToMessageParams_RejectsUnknownRole(t *testing.T) {
	_, err := toMessageParams([]domain.ChatMessage{{Role: "tool", Content: "x"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tool")
}
