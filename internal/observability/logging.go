package observability

import (
	"context"
	"log/slog"
	"os"

	"photoshare/internal/models"
)

// Logger is the process-wide structured logger. Records logged with a
// context pick up the request, viewer and trace IDs stored by the HTTP
// middleware.
var Logger *slog.Logger

type logKey string

const (
	requestIDKey logKey = "request_id"
	viewerIDKey  logKey = "user_id"
	traceIDKey   logKey = "trace_id"
)

func init() {
	Logger = NewLogger(os.Getenv("APP_ENV"), slog.LevelInfo)
}

// NewLogger builds a context-aware logger: JSON in production, text elsewhere.
func NewLogger(env string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(contextHandler{handler})
}

// WithRequestID tags log records written with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithUserID tags log records with the authenticated viewer.
func WithUserID(ctx context.Context, userID models.ID) context.Context {
	return context.WithValue(ctx, viewerIDKey, userID)
}

// WithTraceID tags log records with the active trace.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// UserIDFrom returns the viewer stored by WithUserID.
func UserIDFrom(ctx context.Context) (models.ID, bool) {
	id, ok := ctx.Value(viewerIDKey).(models.ID)
	return id, ok
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := UserIDFrom(ctx); ok {
		r.AddAttrs(slog.String("user_id", id.String()))
	}
	if id, ok := ctx.Value(traceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}
