package mwspay

import (
	"context"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
	"github.com/aws/smithy-go/logging"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/internal/wire"
	"github.com/thomasdesr/mwspay/ipn"
	"github.com/thomasdesr/mwspay/ipn/topic_verifiers"
)

// NotificationVerifier authenticates inbound IPNs.
type NotificationVerifier struct {
	Authenticator *ipn.Authenticator

	roundTripper    http.RoundTripper
	userAgent       string
	logger          logging.Logger
	expectedSubject []ipn.SubjectMatcher
}

// NewNotificationVerifier accepts notifications published to one of
// allowedTopics, or to any topic when allowedTopics is empty.
func NewNotificationVerifier(allowedTopics []arn.ARN, opts ...Option[NotificationVerifier]) (*NotificationVerifier, error) {
	v := &NotificationVerifier{
		userAgent:       wire.UserAgent("", ""),
		logger:          logging.Nop{},
		expectedSubject: ipn.DefaultSubject(),
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, errorutil.Wrap(err, "failed to apply notification verifier option")
		}
	}

	validTopics := topic_verifiers.Any()
	if len(allowedTopics) > 0 {
		topics, err := parseTopicsToSources(allowedTopics)
		if err != nil {
			return nil, errorutil.Wrap(err, "failed to parse allowed topics")
		}
		validTopics = topic_verifiers.MatchesAny(topics)
	}

	v.Authenticator = ipn.NewAuthenticator(validTopics, v.roundTripper,
		ipn.WithUserAgent(v.userAgent),
		ipn.WithLogger(v.logger),
		ipn.WithExpectedSubject(v.expectedSubject),
	)

	return v, nil
}

// Verify authenticates a notification from its HTTP headers and body.
func (v *NotificationVerifier) Verify(ctx context.Context, header http.Header, body []byte) (*ipn.VerifiedNotification, error) {
	return v.Authenticator.Authenticate(ctx, header, body)
}
