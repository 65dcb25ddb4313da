// Package ipnhttp receives Amazon Pay IPNs over HTTP. Each POST is
// authenticated before it reaches the caller's Handler; SNS redelivers
// anything that is not answered with a 2xx.
package ipnhttp

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	mwspay "github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/internal/dedupe"
	"github.com/thomasdesr/mwspay/ipn"
	"go.uber.org/zap"
)

const (
	DefaultPath = "/ipn"

	HeaderRequestID = "X-Request-Id"

	// SNS messages are at most 256KB.
	defaultMaxBodyBytes = 256 << 10

	requestIDKey = "request_id"
)

// Verifier is satisfied by *mwspay.NotificationVerifier.
type Verifier interface {
	Verify(ctx context.Context, header http.Header, body []byte) (*ipn.VerifiedNotification, error)
}

var _ Verifier = &mwspay.NotificationVerifier{}

// Handler processes an authenticated notification. ctx carries the
// notification, see mwspay.NotificationFromContext. Returning an error
// answers 500 so SNS delivers the notification again.
type Handler func(ctx context.Context, n *ipn.VerifiedNotification) error

// Recorder counts verification results; *metrics.Service implements it.
type Recorder interface {
	RecordNotification(err error)
}

type Server struct {
	verifier Verifier
	handler  Handler

	path         string
	maxBodyBytes int64
	deduper      dedupe.Deduper
	recorder     Recorder
	logger       *zap.Logger
}

type Option func(*Server)

func WithPath(path string) Option {
	return func(s *Server) {
		s.path = path
	}
}

func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		s.maxBodyBytes = n
	}
}

// WithDeduper drops notifications whose MessageId was already handled.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Server) {
		s.deduper = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func New(v Verifier, h Handler, opts ...Option) *Server {
	s := &Server{
		verifier:     v,
		handler:      h,
		path:         DefaultPath,
		maxBodyBytes: defaultMaxBodyBytes,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register mounts the notification endpoint on r.
func (s *Server) Register(r gin.IRoutes) {
	r.POST(s.path, RequestID(), s.HandleNotification)
}

// Router returns a gin engine serving only the notification endpoint.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	s.Register(r)
	return r
}

// RequestID tags each request with an id, reusing the caller's X-Request-Id
// when it sent one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

func (s *Server) HandleNotification(c *gin.Context) {
	ctx := c.Request.Context()
	logger := s.logger.With(zap.String(requestIDKey, c.GetString(requestIDKey)))

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("notification body too large", zap.Int64("limit", tooLarge.Limit))
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		logger.Warn("failed to read notification body", zap.Error(err))
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	n, err := s.verifier.Verify(ctx, c.Request.Header, body)
	s.record(err)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		var authErr *ipn.AuthenticationError
		if errors.As(err, &authErr) {
			fields = append(fields, zap.Stringer("stage", authErr.Stage))
		}
		logger.Warn("rejected notification", fields...)

		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	logger = logger.With(zap.String("message_id", n.MessageID), zap.String("topic_arn", n.TopicArn))

	if s.deduper != nil {
		seen, err := s.deduper.Seen(ctx, n.MessageID)
		if err != nil {
			logger.Error("failed to check for duplicate notification", zap.Error(err))
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if seen {
			logger.Info("ignoring duplicate notification")
			c.Status(http.StatusOK)
			return
		}
	}

	if err := s.handler(mwspay.AttachNotificationToContext(ctx, n), n); err != nil {
		logger.Error("notification handler failed", zap.Error(err))

		if s.deduper != nil {
			if err := s.deduper.Forget(ctx, n.MessageID); err != nil {
				logger.Error("failed to forget notification", zap.Error(err))
			}
		}

		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	logger.Debug("handled notification")
	c.Status(http.StatusOK)
}

func (s *Server) record(err error) {
	if s.recorder != nil {
		s.recorder.RecordNotification(err)
	}
}
