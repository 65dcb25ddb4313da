package ipn_test

import (
	"testing"

	"github.com/thomasdesr/mwspay/ipn"
)

func TestCanonicalString(t *testing.T) {
	got := ipn.CanonicalString(map[string]string{
		"Type":           "Type",
		"MessageId":      "MessageId",
		"TopicArn":       "TopicArn",
		"Message":        innerMessage,
		"Timestamp":      "Timestamp",
		"Signature":      "Signature",
		"SigningCertURL": "https://test.com/test.pem",
	})

	want := "Message\n" + innerMessage + "\nMessageId\nMessageId\nTimestamp\nTimestamp\nTopicArn\nTopicArn\nType\nType\n"
	if got != want {
		t.Fatalf("unexpected canonical string\nwant: %q\n got: %q", want, got)
	}
}

func TestCanonicalStringWithSubject(t *testing.T) {
	got := ipn.CanonicalString(map[string]string{
		"Type":    "Notification",
		"Subject": "",
		"Message": "m",
	})

	if want := "Message\nm\nSubject\n\nType\nNotification\n"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
