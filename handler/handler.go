package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"eip-explainer/internal/domain"
	"eip-explainer/internal/metrics"
	"eip-explainer/internal/statecodec"
	"eip-explainer/internal/usecase"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"

	// Resolved content comes back inside the echoed state. JSON escaping can
	// grow a byte to six, and a state sent as a string is escaped twice.
	maxFrameBodyBytes = 8 * domain.MaxContentBytes
	imageErrorBody    = "Failed to generate image"

	// Served when even the error frame cannot be rendered.
	fallbackDocument = `<!DOCTYPE html><html><head><meta property="fc:frame" content="vNext" /><meta property="og:title" content="Error" /></head></html>`
)

type FrameService interface {
	Transition(ctx context.Context, ev domain.InboundEvent) domain.Presentation
}

type FrameRenderer interface {
	String(p domain.Presentation) (string, error)
}

type ImageRenderer interface {
	Render(ctx context.Context, text string) ([]byte, error)
}

type AuditRecorder interface {
	NewTransitionRecord(correlationID, topicID string, from, to domain.Stage, outcome domain.Outcome, latency time.Duration) domain.TransitionRecord
	RecordTransition(ctx context.Context, rec domain.TransitionRecord) error
}

type Option func(*Handler)

func WithMetrics(m *metrics.Collector) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithAudit enables the transition trail. A nil recorder leaves it off.
func WithAudit(a AuditRecorder) Option {
	return func(h *Handler) { h.audit = a }
}

// WithProbe sets what the health route reports.
func WithProbe(host string, hasOpenAI bool) Option {
	return func(h *Handler) {
		h.host = host
		h.hasOpenAI = hasOpenAI
	}
}

type Handler struct {
	service FrameService
	frames  FrameRenderer
	images  ImageRenderer
	metrics *metrics.Collector
	audit   AuditRecorder

	host      string
	hasOpenAI bool
}

func NewHandler(service FrameService, frames FrameRenderer, images ImageRenderer, opts ...Option) (*Handler, error) {
	if service == nil {
		return nil, errors.New("handler: frame service must not be nil")
	}
	if frames == nil {
		return nil, errors.New("handler: frame renderer must not be nil")
	}
	if images == nil {
		return nil, errors.New("handler: image renderer must not be nil")
	}
	h := &Handler{service: service, frames: frames, images: images}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

type frameRequest struct {
	UntrustedData struct {
		ButtonIndex *int            `json:"buttonIndex"`
		InputText   *string         `json:"inputText"`
		State       json.RawMessage `json:"state"`
	} `json:"untrustedData"`
}

type healthResponse struct {
	Host      string `json:"host"`
	HasOpenAI bool   `json:"hasOpenAI"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// decodeFrameRequest maps a callback body to an event. An empty body is the
// empty object, and a missing state means the session is starting.
func decodeFrameRequest(body []byte) (domain.InboundEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}
	var req frameRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return domain.InboundEvent{}, fmt.Errorf("handler: decode frame request: %w", err)
	}

	ev := domain.InboundEvent{
		ButtonIndex: req.UntrustedData.ButtonIndex,
		InputText:   req.UntrustedData.InputText,
	}
	raw := bytes.TrimSpace(req.UntrustedData.State)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		state := statecodec.Decode(raw)
		ev.State = &state
	}
	return ev, nil
}

// Frame runs one callback and returns the frame document. It always yields a
// document; failures become the generic error frame.
func (h *Handler) Frame(ctx context.Context, body []byte, correlationID string) string {
	start := time.Now()
	ev, p := h.transition(ctx, body, correlationID)
	return h.finishFrame(ctx, ev, p, time.Since(start), correlationID)
}

// unreadableFrame answers a callback whose body could not be read.
func (h *Handler) unreadableFrame(ctx context.Context, err error, correlationID string) string {
	slog.Warn("handler: unreadable frame request", "correlation_id", correlationID, "err", err)
	return h.finishFrame(ctx, domain.InboundEvent{}, usecase.Unexpected(), 0, correlationID)
}

func (h *Handler) finishFrame(ctx context.Context, ev domain.InboundEvent, p domain.Presentation, latency time.Duration, correlationID string) string {
	doc, err := h.frames.String(p)
	if err != nil {
		slog.Error("handler: render frame", "correlation_id", correlationID, "err", err)
		p = usecase.Unexpected()
		if doc, err = h.frames.String(p); err != nil {
			doc = fallbackDocument
		}
	}

	from := "none"
	var fromStage domain.Stage
	topic := p.State.TopicID
	if ev.State != nil {
		fromStage = ev.State.Stage
		from = string(fromStage)
		if topic == "" {
			topic = ev.State.TopicID
		}
	}
	if topic == "" && p.Outcome == domain.OutcomeNotFound && ev.InputText != nil {
		topic = strings.TrimSpace(*ev.InputText)
	}

	h.metrics.ObserveTransition(from, p.Outcome, latency)
	slog.Info("handler: frame transition",
		"correlation_id", correlationID,
		"from", from,
		"to", string(p.State.Stage),
		"outcome", string(p.Outcome),
		"latency_ms", latency.Milliseconds(),
	)
	if h.audit != nil {
		rec := h.audit.NewTransitionRecord(correlationID, topic, fromStage, p.State.Stage, p.Outcome, latency)
		if err := h.audit.RecordTransition(ctx, rec); err != nil {
			slog.Warn("handler: audit write failed", "correlation_id", correlationID, "err", err)
		}
	}
	return doc
}

func (h *Handler) transition(ctx context.Context, body []byte, correlationID string) (ev domain.InboundEvent, p domain.Presentation) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler: panic in frame transition",
				"correlation_id", correlationID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			p = usecase.Unexpected()
		}
	}()

	ev, err := decodeFrameRequest(body)
	if err != nil {
		slog.Warn("handler: malformed frame request", "correlation_id", correlationID, "err", err)
		return domain.InboundEvent{}, usecase.Unexpected()
	}
	return ev, h.service.Transition(ctx, ev)
}

// Image renders the card for text. A panic in the renderer is reported as an error.
func (h *Handler) Image(ctx context.Context, text string, correlationID string) (png []byte, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler: panic in image render",
				"correlation_id", correlationID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			png, err = nil, fmt.Errorf("handler: image render panicked: %v", r)
			h.metrics.ObserveImage(false, time.Since(start))
		}
	}()

	png, err = h.images.Render(ctx, text)
	h.metrics.ObserveImage(err == nil, time.Since(start))
	if err != nil {
		slog.Error("handler: image render failed", "correlation_id", correlationID, "err", err)
		return nil, err
	}
	return png, nil
}

func (h *Handler) health() healthResponse {
	return healthResponse{Host: h.host, HasOpenAI: h.hasOpenAI}
}

// correlationID returns the caller's id, matched case-insensitively, or a new one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, HeaderCorrelationID) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
