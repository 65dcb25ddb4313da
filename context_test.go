package mwspay_test

import (
	"context"
	"testing"

	mwspay "github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/ipn"
)

func TestContext(t *testing.T) {
	n := &ipn.VerifiedNotification{MessageID: "MessageId"}

	ctx := mwspay.AttachNotificationToContext(context.Background(), n)

	got := mwspay.NotificationFromContext(ctx)
	if got == nil {
		t.Fatal("expected notification")
	}

	if got.MessageID != "MessageId" {
		t.Fatalf("unexpected notification: %v", got.MessageID)
	}
}

func TestContextEmpty(t *testing.T) {
	if n := mwspay.NotificationFromContext(context.Background()); n != nil {
		t.Fatalf("expected no notification, got %v", n.MessageID)
	}

	ctx := mwspay.AttachNotificationToContext(context.Background(), nil)
	if n := mwspay.NotificationFromContext(ctx); n != nil {
		t.Fatalf("expected no notification, got %v", n.MessageID)
	}
}
