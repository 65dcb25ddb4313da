// Package ipn authenticates Amazon Pay instant payment notifications, which
// arrive as SNS HTTP(S) deliveries.
//
// A notification is only trusted once its signing certificate has been
// fetched from an SNS host, its certificate subject matches Amazon's, and the
// certificate's key verifies the signature over the notification's
// canonical string. Until then its Message stays sealed.
package ipn

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/beevik/etree"
	"github.com/thomasdesr/mwspay/internal/errorutil"
	"github.com/thomasdesr/mwspay/ipn/internal/masker"
)

const (
	HeaderMessageType       = "x-amz-sns-message-type"
	MessageTypeNotification = "Notification"
)

// knownFields are the string fields of an SNS notification body.
var knownFields = []string{
	"Type",
	"MessageId",
	"TopicArn",
	"Subject",
	"Message",
	"Timestamp",
	"Signature",
	"SignatureVersion",
	"SigningCertURL",
	"UnsubscribeURL",
}

// UnverifiedNotification is a notification as received. None of its fields
// can be trusted, and its Message can only be read by verifying it.
type UnverifiedNotification struct {
	Type             string
	MessageID        string
	TopicArn         string
	Subject          string
	Timestamp        string
	Signature        string
	SignatureVersion string
	SigningCertURL   string
	UnsubscribeURL   string

	sealedMessage []byte
	fields        map[string]string
}

// ParseNotification decodes an SNS notification body. Fields that aren't
// strings are rejected; fields that are missing stay missing and are left
// out of the canonical string.
func ParseNotification(body []byte) (*UnverifiedNotification, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, reject(Received, "malformed notification body", err)
	}

	fields := make(map[string]string, len(knownFields))
	for _, name := range knownFields {
		v, ok := raw[name]
		if !ok || string(v) == "null" {
			continue
		}

		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return nil, reject(Received, fmt.Sprintf("notification field %s is not a string", name), err)
		}
		fields[name] = s
	}

	n := &UnverifiedNotification{
		Type:             fields["Type"],
		MessageID:        fields["MessageId"],
		TopicArn:         fields["TopicArn"],
		Subject:          fields["Subject"],
		Timestamp:        fields["Timestamp"],
		Signature:        fields["Signature"],
		SignatureVersion: fields["SignatureVersion"],
		SigningCertURL:   fields["SigningCertURL"],
		UnsubscribeURL:   fields["UnsubscribeURL"],
	}

	if msg, ok := fields["Message"]; ok {
		n.sealedMessage = masker.Seal(masker.KeyFor(n.Signature), []byte(msg))
		fields["Message"] = ""
	}
	n.fields = fields

	return n, nil
}

// Has reports whether the body carried the named field, e.g. "Subject".
func (n *UnverifiedNotification) Has(field string) bool {
	_, ok := n.fields[field]
	return ok
}

// signedFields returns the fields covered by the signature, with Message
// opened.
func (n *UnverifiedNotification) signedFields() (map[string]string, string, error) {
	out := make(map[string]string, len(signableFields))
	for _, name := range signableFields {
		if v, ok := n.fields[name]; ok {
			out[name] = v
		}
	}

	if !n.Has("Message") {
		return out, "", nil
	}

	msg, err := masker.Open(masker.KeyFor(n.Signature), n.sealedMessage)
	if err != nil {
		return nil, "", errorutil.Wrap(err, "opening message")
	}
	out["Message"] = string(msg)

	return out, string(msg), nil
}

// VerifiedNotification is a notification whose signature checked out.
type VerifiedNotification struct {
	Type             string
	MessageID        string
	TopicArn         string
	Subject          string
	Message          string
	Timestamp        string
	SignatureVersion string
	SigningCertURL   string
	UnsubscribeURL   string

	inner struct {
		once sync.Once
		msg  *Message
		err  error
	}
}

// Message is the Amazon Pay payload carried in a notification's Message.
type Message struct {
	NotificationType   string `json:"NotificationType"`
	SellerID           string `json:"SellerId"`
	ReleaseEnvironment string `json:"ReleaseEnvironment"`
	Version            string `json:"Version"`
	NotificationData   string `json:"NotificationData"`
	Timestamp          string `json:"Timestamp"`
}

// Inner decodes Message on first use.
func (v *VerifiedNotification) Inner() (*Message, error) {
	v.inner.once.Do(func() {
		var m Message
		if err := json.Unmarshal([]byte(v.Message), &m); err != nil {
			v.inner.err = errorutil.Wrap(err, "decoding notification message")
			return
		}
		v.inner.msg = &m
	})
	return v.inner.msg, v.inner.err
}

// Data parses NotificationData, which Amazon Pay sends as an XML document.
func (m *Message) Data() (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(m.NotificationData); err != nil {
		return nil, errorutil.Wrap(err, "parsing notification data")
	}
	return doc, nil
}
