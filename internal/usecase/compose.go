package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cold-message/internal/catalog"
	"cold-message/internal/domain"
)

// ModelGateway is the lazily loaded model the service composes with.
type ModelGateway interface {
	ModelID() string
	EnsureLoaded(ctx context.Context) (domain.ModelHandle, error)
	Invoke(ctx context.Context, h domain.ModelHandle, prompt string, opts domain.GenerationOptions) (string, error)
}

// Recorder receives generation metrics.
type Recorder interface {
	IncMessages(source domain.Source, messageType domain.MessageType)
	IncModelFailures(code ErrorCode, reason string)
	ObserveModelLatency(seconds float64)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

// State is the position of a session in its generation cycle.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateFallback   State = "fallback"
	StateDone       State = "done"
)

// MessageService composes networking messages for one session. It tries the
// model first and switches to template-based composition for the rest of the
// session after the first model failure. Only one generation runs at a time.
type MessageService struct {
	catalog *catalog.Catalog
	gateway ModelGateway
	picker  Picker
	genOpts domain.GenerationOptions
	logger  *zap.Logger
	metrics Recorder

	fallback   atomic.Bool
	generating atomic.Bool

	stateMu sync.Mutex
	state   State
}

type GenerateOutput struct {
	Message      string
	Source       domain.Source
	RequestID    string
	ModelID      string
	FallbackMode bool
}

type Option func(*MessageService)

// WithGateway sets the model. Without one the service starts in fallback mode.
func WithGateway(g ModelGateway) Option {
	return func(s *MessageService) {
		s.gateway = g
	}
}

func WithPicker(p Picker) Option {
	return func(s *MessageService) {
		if p != nil {
			s.picker = p
		}
	}
}

func WithGenerationOptions(o domain.GenerationOptions) Option {
	return func(s *MessageService) {
		s.genOpts = o
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *MessageService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *MessageService) {
		if r != nil {
			s.metrics = r
		}
	}
}

func NewMessageService(c *catalog.Catalog, opts ...Option) (*MessageService, error) {
	if c == nil {
		return nil, errors.New("usecase: catalog must not be nil")
	}
	s := &MessageService{
		catalog: c,
		picker:  DefaultPicker(),
		genOpts: domain.DefaultGenerationOptions(),
		logger:  zap.NewNop(),
		metrics: noopRecorder{},
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.gateway == nil {
		s.fallback.Store(true)
	}
	return s, nil
}

// Generate produces a message for req. Model failures are logged and answered
// from the fallback templates; they are never returned. Errors are limited to
// invalid input, a generation already in progress, or a cancelled context.
func (s *MessageService) Generate(ctx context.Context, req domain.MessageRequest) (GenerateOutput, error) {
	if !s.generating.CompareAndSwap(false, true) {
		return GenerateOutput{}, NewError(ErrorBusy, "generation_in_progress", nil)
	}
	defer s.generating.Store(false)

	if err := s.catalog.Validate(req); err != nil {
		var vErr *catalog.ValidationError
		if errors.As(err, &vErr) {
			return GenerateOutput{}, NewError(ErrorInvalidInput, vErr.Reason, err)
		}
		return GenerateOutput{}, NewError(ErrorInvalidInput, "invalid_request", err)
	}

	requestID := newUUID()
	s.setState(StateGenerating)

	if !s.fallback.Load() {
		msg, err := s.generateWithModel(ctx, req)
		if err == nil {
			s.setState(StateDone)
			s.metrics.IncMessages(domain.SourceModel, req.MessageType)
			return GenerateOutput{
				Message:   msg,
				Source:    domain.SourceModel,
				RequestID: requestID,
				ModelID:   s.gateway.ModelID(),
			}, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.setState(StateIdle)
			return GenerateOutput{}, NewError(ErrorInternal, "canceled", ctxErr)
		}
		s.recordModelFailure(requestID, err)
	}

	s.setState(StateFallback)
	msg := BuildFallbackMessage(s.catalog, req, s.picker)
	s.setState(StateDone)
	s.metrics.IncMessages(domain.SourceFallback, req.MessageType)
	return GenerateOutput{
		Message:      msg,
		Source:       domain.SourceFallback,
		RequestID:    requestID,
		FallbackMode: true,
	}, nil
}

func (s *MessageService) generateWithModel(ctx context.Context, req domain.MessageRequest) (string, error) {
	h, err := s.gateway.EnsureLoaded(ctx)
	if err != nil {
		return "", NewError(ErrorModelLoad, "model_load_failed", err)
	}

	started := time.Now()
	raw, err := s.gateway.Invoke(ctx, h, BuildPrompt(s.catalog, req), s.genOpts)
	s.metrics.ObserveModelLatency(time.Since(started).Seconds())
	if err != nil {
		return "", NewError(ErrorModelInvocation, invocationReason(err), err)
	}
	return NormalizeGreeting(s.catalog, raw, req.MessageType), nil
}

func (s *MessageService) recordModelFailure(requestID string, err error) {
	code, reason := ErrorInternal, "model_error"
	var usecaseErr *Error
	if errors.As(err, &usecaseErr) {
		code, reason = usecaseErr.Code, usecaseErr.Reason
	}
	s.metrics.IncModelFailures(code, reason)
	s.logger.Warn("model generation failed",
		zap.String("request_id", requestID),
		zap.String("model", s.gateway.ModelID()),
		zap.String("code", string(code)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	if s.fallback.CompareAndSwap(false, true) {
		s.logger.Warn("switching to fallback mode for the rest of the session",
			zap.String("request_id", requestID),
		)
	}
}

func invocationReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "model_timeout"
	}
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) && statusErr.HTTPStatusCode() == 429 {
		return "model_rate_limited"
	}
	return "model_invocation_failed"
}

// UseFallback switches the session to template-based composition.
func (s *MessageService) UseFallback() {
	s.fallback.Store(true)
}

// FallbackMode reports whether the model path has been abandoned.
func (s *MessageService) FallbackMode() bool {
	return s.fallback.Load()
}

// State returns the current generation state.
func (s *MessageService) State() State {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

func (s *MessageService) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

type noopRecorder struct{}

func (noopRecorder) IncMessages(domain.Source, domain.MessageType) {}
func (noopRecorder) IncModelFailures(ErrorCode, string)            {}
func (noopRecorder) ObserveModelLatency(float64)                   {}

func defaultUUID() string {
	return uuid.NewString()
}

var newUUID = defaultUUID
