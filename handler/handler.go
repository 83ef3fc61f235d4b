package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"limpopo-ai/internal/domain"
	"limpopo-ai/internal/usecase"
)

const (
	correlationHeader = "X-Correlation-Id"

	errorNotFound         = "NOT_FOUND"
	errorMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

type Asker interface {
	Ask(ctx context.Context, in usecase.AskInput) (usecase.AskOutput, error)
}

type Describer interface {
	Describe(ctx context.Context, b domain.Business) (usecase.DescribeOutput, error)
	History(ctx context.Context, businessName string, limit int) ([]domain.Description, error)
}

type askRequest struct {
	Question string `json:"question"`
	System   string `json:"system,omitempty"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

type describeRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

type describeResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Saved       bool   `json:"saved"`
}

type descriptionView struct {
	ID        string `json:"id"`
	Business  string `json:"business"`
	Type      string `json:"type"`
	Location  string `json:"location"`
	Text      string `json:"text"`
	Model     string `json:"model"`
	CreatedAt string `json:"createdAt"`
}

type descriptionsResponse struct {
	Descriptions []descriptionView `json:"descriptions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the API Gateway proxy routes backed by the use cases.
type Handler struct {
	asker     Asker
	describer Describer
	logger    *slog.Logger
}

func NewHandler(asker Asker, describer Describer, logger *slog.Logger) (*Handler, error) {
	if asker == nil {
		return nil, errors.New("handler: asker must not be nil")
	}
	if describer == nil {
		return nil, errors.New("handler: describer must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{asker: asker, describer: describer, logger: logger}, nil
}

func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req.Headers)
	logger := h.logger.With("correlation_id", corrID, "method", req.HTTPMethod, "path", req.Path)

	path := strings.TrimRight(req.Path, "/")
	var resp events.APIGatewayProxyResponse
	switch path {
	case "/ask":
		resp = h.onlyMethod(req, http.MethodPost, func() events.APIGatewayProxyResponse {
			return h.handleAsk(ctx, logger, req)
		})
	case "/describe":
		resp = h.onlyMethod(req, http.MethodPost, func() events.APIGatewayProxyResponse {
			return h.handleDescribe(ctx, logger, req)
		})
	case "/descriptions":
		resp = h.onlyMethod(req, http.MethodGet, func() events.APIGatewayProxyResponse {
			return h.handleDescriptions(ctx, logger, req)
		})
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: errorNotFound})
	}

	resp.Headers[correlationHeader] = corrID
	logger.Info("request handled", "status", resp.StatusCode)
	return resp, nil
}

func (h *Handler) onlyMethod(req events.APIGatewayProxyRequest, method string, next func() events.APIGatewayProxyResponse) events.APIGatewayProxyResponse {
	if !strings.EqualFold(req.HTTPMethod, method) {
		resp := jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: errorMethodNotAllowed})
		resp.Headers["Allow"] = method
		return resp
	}
	return next()
}

func (h *Handler) handleAsk(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in askRequest
	if err := decodeBody(req, &in); err != nil {
		logger.Warn("invalid ask body", "err", err)
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)})
	}
	out, err := h.asker.Ask(ctx, usecase.AskInput{Question: in.Question, SystemMessage: in.System})
	if err != nil {
		return errorToResponse(logger, err)
	}
	return jsonResponse(http.StatusOK, askResponse{Answer: out.Answer, Model: out.Model})
}

func (h *Handler) handleDescribe(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	var in describeRequest
	if err := decodeBody(req, &in); err != nil {
		logger.Warn("invalid describe body", "err", err)
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)})
	}
	out, err := h.describer.Describe(ctx, domain.Business{Name: in.Name, Type: in.Type, Location: in.Location})
	if err != nil {
		return errorToResponse(logger, err)
	}
	return jsonResponse(http.StatusOK, describeResponse{ID: out.ID, Description: out.Description, Saved: out.Saved})
}

func (h *Handler) handleDescriptions(ctx context.Context, logger *slog.Logger, req events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	business := req.QueryStringParameters["business"]
	limit := 0
	if raw := req.QueryStringParameters["limit"]; raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput)})
		}
		limit = n
	}

	descs, err := h.describer.History(ctx, business, limit)
	if err != nil {
		return errorToResponse(logger, err)
	}
	views := make([]descriptionView, 0, len(descs))
	for _, d := range descs {
		views = append(views, descriptionView{
			ID:        d.ID,
			Business:  d.BusinessName,
			Type:      d.BusinessType,
			Location:  d.Location,
			Text:      d.Text,
			Model:     d.Model,
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return jsonResponse(http.StatusOK, descriptionsResponse{Descriptions: views})
}

func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return err
		}
		body = decoded
	}
	return json.Unmarshal(body, v)
}

func errorToResponse(logger *slog.Logger, err error) events.APIGatewayProxyResponse {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		logger.Error("unexpected error", "err", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)})
	}

	status := http.StatusInternalServerError
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		status = http.StatusBadRequest
	case usecase.ErrorRateLimited:
		status = http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", string(ucErr.Code), "reason", ucErr.Reason, "err", err)
	} else {
		logger.Warn("request rejected", "code", string(ucErr.Code), "reason", ucErr.Reason)
	}
	code := ucErr.Code
	if status == http.StatusInternalServerError {
		code = usecase.ErrorInternal
	}
	return jsonResponse(status, errorResponse{Error: string(code)})
}

func jsonResponse(status int, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}

// correlationID returns the caller's X-Correlation-Id, matched
// case-insensitively, or a fresh UUID.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
