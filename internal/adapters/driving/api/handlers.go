package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/custodia-labs/vault-rag/internal/core/domain"
	"github.com/custodia-labs/vault-rag/internal/logger"
)

// RootResponse describes the API.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// RetrieveRequest is the body of POST /retrieve.
// Query is a pointer so an absent field differs from "". TopK stays raw so an
// explicit null can be told apart from an omitted field.
type RetrieveRequest struct {
	Query *string         `json:"query"`
	TopK  json.RawMessage `json:"top_k,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{
		Message: "Vault RAG API",
		Version: s.version,
		Endpoints: map[string]string{
			"health":   PathHealth,
			"retrieve": PathRetrieve,
			"metrics":  PathMetrics,
		},
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, s.retrieval.Health(c.Request().Context()))
}

func (s *Server) handleRetrieve(c echo.Context) error {
	var req RetrieveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity,
			fmt.Sprintf("invalid request body: %v", bindMessage(err))).SetInternal(err)
	}

	if req.Query == nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "query: field required")
	}

	topK, err := s.parseTopK(req.TopK)
	if err != nil {
		return err
	}

	resp, err := s.retrieval.Retrieve(c.Request().Context(), *req.Query, topK)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// parseTopK returns 0 when top_k is omitted so the service applies its default.
func (s *Server) parseTopK(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	if string(bytes.TrimSpace(raw)) == "null" {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "top_k: must be an integer, got null")
	}

	var topK int
	if err := json.Unmarshal(raw, &topK); err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity,
			fmt.Sprintf("top_k: must be an integer, got %s", raw)).SetInternal(err)
	}
	if topK < 1 || topK > s.maxTopK {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity,
			fmt.Sprintf("top_k must be between 1 and %d, got %d", s.maxTopK, topK))
	}
	return topK, nil
}

// bindMessage unwraps echo's binder error to the decoder message.
func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// handleError writes every failure as {"detail": "..."}.
func handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, ErrorResponse{Detail: detail})
	}
	if err != nil {
		logger.Warn("Failed to write error response: %v", err)
	}
}

// statusFor maps an error to an HTTP status and detail message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}

	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		return http.StatusInternalServerError, err.Error()
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTopK):
		return http.StatusUnprocessableEntity, re.Message
	case re.Kind == domain.KindValidation:
		return http.StatusBadRequest, re.Message
	case re.Kind == domain.KindUnavailable:
		return http.StatusServiceUnavailable, re.Message
	default:
		return http.StatusInternalServerError, re.Error()
	}
}
