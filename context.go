package mwspay

import (
	"context"

	"github.com/thomasdesr/mwspay/ipn"
)

type (
	notificationContextKey struct{}
)

var (
	notificationContextKeyInstance = notificationContextKey{}
)

// AttachNotificationToContext stores a verified notification for handlers
// further down a request chain. A nil notification leaves ctx unchanged.
func AttachNotificationToContext(ctx context.Context, n *ipn.VerifiedNotification) context.Context {
	if n == nil {
		return ctx
	}

	return context.WithValue(ctx, notificationContextKeyInstance, n)
}

func NotificationFromContext(ctx context.Context) *ipn.VerifiedNotification {
	n, _ := ctx.Value(notificationContextKeyInstance).(*ipn.VerifiedNotification)
	return n
}
