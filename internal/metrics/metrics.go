// Package metrics exposes Prometheus counters for MWS calls and inbound
// notifications.
package metrics

import (
	"context"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/thomasdesr/mwspay/ipn"
	"github.com/thomasdesr/mwspay/transport"
)

const namespace = "mwspay"

// Service holds the mwspay collectors. It is a transport.Observer, so it can
// be handed straight to WithObserver.
type Service struct {
	attemptsTotal      *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
}

var _ transport.Observer = &Service{}

// NewService registers the collectors with reg, or with the default
// registerer when reg is nil.
func NewService(reg prometheus.Registerer) *Service {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Service{
		attemptsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mws_attempts_total",
				Help:      "MWS requests sent, by HTTP status and outcome",
			},
			[]string{"status", "outcome"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mws_retries_total",
				Help:      "MWS requests retried, by error kind",
			},
			[]string{"kind"},
		),
		notificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ipn_notifications_total",
				Help:      "Inbound notifications, by result and the last stage passed",
			},
			[]string{"result", "stage"},
		),
	}
}

func (s *Service) ObserveAttempt(_ context.Context, a transport.Attempt) {
	status := "network_error"
	if a.StatusCode != 0 {
		status = strconv.Itoa(a.StatusCode)
	}

	outcome := "done"
	switch {
	case a.Err != nil && a.StatusCode != 0:
		outcome = "exhausted"
	case a.Err != nil:
		outcome = "error"
	case a.Decision.Outcome == transport.Retryable:
		outcome = "retry"
		s.retriesTotal.WithLabelValues(string(a.Decision.Kind)).Inc()
	}

	s.attemptsTotal.WithLabelValues(status, outcome).Inc()
}

// RecordNotification counts one Authenticate result. err is what
// Authenticate returned.
func (s *Service) RecordNotification(err error) {
	if err == nil {
		s.notificationsTotal.WithLabelValues("accepted", ipn.SignatureVerified.String()).Inc()
		return
	}

	stage := "unknown"
	var authErr *ipn.AuthenticationError
	if errors.As(err, &authErr) {
		stage = authErr.Stage.String()
	}
	s.notificationsTotal.WithLabelValues("rejected", stage).Inc()
}
