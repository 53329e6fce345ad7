package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with booking-domain helpers.
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance. Text output in debug mode, JSON in
// release mode, level taken from LOG_LEVEL.
func New() *Logger {
	level := getLogLevel(os.Getenv("LOG_LEVEL"))

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithError adds error to logger context.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("error", err.Error()))}
}

// WithFields adds multiple fields to logger context.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogHTTPRequest logs an HTTP request.
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
	)
}

// LogHoldAcquired logs a successful seat hold.
func (l *Logger) LogHoldAcquired(ctx context.Context, seatID, userID string, expiry time.Time) {
	l.Logger.InfoContext(ctx,
		"Seat Hold Acquired",
		slog.String("seat_id", seatID),
		slog.String("user_id", userID),
		slog.Time("hold_expiry", expiry),
	)
}

// LogHoldReleased logs a manual hold release.
func (l *Logger) LogHoldReleased(ctx context.Context, seatID string) {
	l.Logger.InfoContext(ctx,
		"Seat Hold Released",
		slog.String("seat_id", seatID),
	)
}

// LogExpiredHoldsReclaimed logs a lazy-sweep reclaim on a read path.
func (l *Logger) LogExpiredHoldsReclaimed(ctx context.Context, eventID string, count int64) {
	if count == 0 {
		return
	}
	l.Logger.InfoContext(ctx,
		"Expired Holds Reclaimed",
		slog.String("event_id", eventID),
		slog.Int64("count", count),
	)
}

// LogReservationCreated logs when a reservation is created.
func (l *Logger) LogReservationCreated(ctx context.Context, reservationID, code, seatID, userID string) {
	l.Logger.InfoContext(ctx,
		"Reservation Created",
		slog.String("reservation_id", reservationID),
		slog.String("code", code),
		slog.String("seat_id", seatID),
		slog.String("user_id", userID),
	)
}

// LogReservationTransition logs an approve/reject/cancel transition.
func (l *Logger) LogReservationTransition(ctx context.Context, reservationID, from, to, actorID string) {
	l.Logger.InfoContext(ctx,
		"Reservation Transition",
		slog.String("reservation_id", reservationID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("actor_id", actorID),
	)
}

// LogEmailDispatchFailed logs a best-effort ticket email failure. The
// reservation is already durable when this fires.
func (l *Logger) LogEmailDispatchFailed(ctx context.Context, reservationID string, err error) {
	l.Logger.WarnContext(ctx,
		"Ticket Email Dispatch Failed",
		slog.String("reservation_id", reservationID),
		slog.String("error", err.Error()),
	)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance.
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
