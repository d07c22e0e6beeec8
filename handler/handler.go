// Package handler is the form layer in front of the message service. It
// validates raw form input and renders the service result.
package handler

import (
	"context"
	"errors"
	"strings"

	"cold-message/internal/catalog"
	"cold-message/internal/domain"
	"cold-message/internal/usecase"
)

// DefaultMessageType applies when the form leaves the message type empty.
const DefaultMessageType = domain.MessageTypeNetworking

// Generator produces a message for a validated request.
type Generator interface {
	Generate(ctx context.Context, req domain.MessageRequest) (usecase.GenerateOutput, error)
}

// Form is the raw, unvalidated input collected from a user.
type Form struct {
	Name           string   `json:"name"`
	Field          string   `json:"field"`
	Skills         []string `json:"skills"`
	CompanyName    string   `json:"companyName,omitempty"`
	JobDescription string   `json:"jobDescription,omitempty"`
	MessageType    string   `json:"messageType,omitempty"`
}

type Response struct {
	Message      string `json:"message"`
	Source       string `json:"source"`
	RequestID    string `json:"requestId"`
	FallbackMode bool   `json:"fallbackMode"`
}

type Handler struct {
	svc     Generator
	catalog *catalog.Catalog
}

func NewHandler(svc Generator, c *catalog.Catalog) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: generator must not be nil")
	}
	if c == nil {
		return nil, errors.New("handler: catalog must not be nil")
	}
	return &Handler{svc: svc, catalog: c}, nil
}

// Request turns a form into a validated MessageRequest. Failures are
// *usecase.Error values with code INVALID_INPUT.
func (h *Handler) Request(f Form) (domain.MessageRequest, error) {
	mt := domain.MessageType(strings.TrimSpace(f.MessageType))
	if mt == "" {
		mt = DefaultMessageType
	}
	req := h.catalog.Normalize(domain.MessageRequest{
		Name:           f.Name,
		Field:          f.Field,
		Skills:         f.Skills,
		CompanyName:    f.CompanyName,
		JobDescription: f.JobDescription,
		MessageType:    mt,
	})
	if err := h.catalog.Validate(req); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			return domain.MessageRequest{}, usecase.NewError(usecase.ErrorInvalidInput, vErr.Reason, err)
		}
		return domain.MessageRequest{}, usecase.NewError(usecase.ErrorInvalidInput, "invalid_request", err)
	}
	return req, nil
}

// Handle validates f and generates a message for it.
func (h *Handler) Handle(ctx context.Context, f Form) (Response, error) {
	req, err := h.Request(f)
	if err != nil {
		return Response{}, err
	}
	out, err := h.svc.Generate(ctx, req)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Message:      out.Message,
		Source:       string(out.Source),
		RequestID:    out.RequestID,
		FallbackMode: out.FallbackMode,
	}, nil
}
