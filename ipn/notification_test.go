package ipn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomasdesr/mwspay/ipn"
)

func TestParseNotification(t *testing.T) {
	n, err := ipn.ParseNotification([]byte(`{
		"Type": "Type",
		"MessageId": "MessageId",
		"TopicArn": "TopicArn",
		"Message": "{\"NotificationType\":\"NotificationType\"}",
		"Timestamp": "Timestamp",
		"Signature": "Signature",
		"SignatureVersion": "SignatureVersion",
		"SigningCertURL": "https://test.com/test.pem",
		"UnsubscribeURL": "UnsubscribeURL",
		"Extra": {"ignored": true}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Type", n.Type)
	assert.Equal(t, "MessageId", n.MessageID)
	assert.Equal(t, "TopicArn", n.TopicArn)
	assert.Equal(t, "Timestamp", n.Timestamp)
	assert.Equal(t, "Signature", n.Signature)
	assert.Equal(t, "SignatureVersion", n.SignatureVersion)
	assert.Equal(t, "https://test.com/test.pem", n.SigningCertURL)
	assert.Equal(t, "UnsubscribeURL", n.UnsubscribeURL)

	assert.True(t, n.Has("Message"))
	assert.False(t, n.Has("Subject"))
}

func TestMessageData(t *testing.T) {
	m := &ipn.Message{
		NotificationType: "PaymentCapture",
		NotificationData: `<?xml version="1.0" encoding="UTF-8"?><CaptureNotification><CaptureDetails><AmazonCaptureId>P01-0000000-0000000-C000000</AmazonCaptureId></CaptureDetails></CaptureNotification>`,
	}

	doc, err := m.Data()
	require.NoError(t, err)

	el := doc.FindElement("./CaptureNotification/CaptureDetails/AmazonCaptureId")
	require.NotNil(t, el)
	assert.Equal(t, "P01-0000000-0000000-C000000", el.Text())

	_, err = (&ipn.Message{NotificationData: "<unclosed"}).Data()
	assert.Error(t, err)
}

func TestInnerMalformed(t *testing.T) {
	v := &ipn.VerifiedNotification{Message: "not json"}

	_, err := v.Inner()
	assert.Error(t, err)

	// The result is memoised.
	_, err2 := v.Inner()
	assert.Equal(t, err, err2)
}
