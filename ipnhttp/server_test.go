package ipnhttp_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	mwspay "github.com/thomasdesr/mwspay"
	"github.com/thomasdesr/mwspay/ipn"
	"github.com/thomasdesr/mwspay/ipnhttp"
)

const body = `{"Type":"Notification"}`

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, header http.Header, body []byte) (*ipn.VerifiedNotification, error) {
	args := m.Called(header.Get(ipn.HeaderMessageType), string(body))
	n, _ := args.Get(0).(*ipn.VerifiedNotification)
	return n, args.Error(1)
}

type mockDeduper struct {
	mock.Mock
}

func (m *mockDeduper) Seen(ctx context.Context, messageID string) (bool, error) {
	args := m.Called(messageID)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeduper) Forget(ctx context.Context, messageID string) error {
	return m.Called(messageID).Error(0)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordNotification(err error) {
	m.Called(err)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(ipn.HeaderMessageType, ipn.MessageTypeNotification)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func verified() *ipn.VerifiedNotification {
	return &ipn.VerifiedNotification{
		Type:      "Notification",
		MessageID: "cf5543af-dd65-5f74-8ccf-0a410e3e2b3d",
		TopicArn:  "arn:aws:sns:us-east-1:123456789012:AmazonPayIPN",
	}
}

func TestHandleNotification(t *testing.T) {
	n := verified()

	v := new(mockVerifier)
	v.On("Verify", ipn.MessageTypeNotification, body).Return(n, nil).Once()

	rec := new(mockRecorder)
	rec.On("RecordNotification", nil).Once()

	var handled *ipn.VerifiedNotification
	srv := ipnhttp.New(v, func(ctx context.Context, got *ipn.VerifiedNotification) error {
		handled = got
		assert.Same(t, got, mwspay.NotificationFromContext(ctx))
		return nil
	}, ipnhttp.WithRecorder(rec))

	w := post(t, srv.Router(), ipnhttp.DefaultPath, body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Same(t, n, handled)

	_, err := uuid.Parse(w.Header().Get(ipnhttp.HeaderRequestID))
	assert.NoError(t, err)

	v.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestHandleNotificationRejected(t *testing.T) {
	authErr := &ipn.AuthenticationError{Stage: ipn.HeaderValidated, Reason: "certificate is not hosted at AWS URL (https)"}

	v := new(mockVerifier)
	v.On("Verify", mock.Anything, mock.Anything).Return(nil, authErr)

	rec := new(mockRecorder)
	rec.On("RecordNotification", authErr).Once()

	srv := ipnhttp.New(v, func(context.Context, *ipn.VerifiedNotification) error {
		t.Fatal("handler called for a rejected notification")
		return nil
	}, ipnhttp.WithRecorder(rec))

	w := post(t, srv.Router(), ipnhttp.DefaultPath, body)

	assert.Equal(t, http.StatusForbidden, w.Code)
	rec.AssertExpectations(t)
}

func TestHandleNotificationTooLarge(t *testing.T) {
	v := new(mockVerifier)

	srv := ipnhttp.New(v, nil, ipnhttp.WithMaxBodyBytes(8))

	w := post(t, srv.Router(), ipnhttp.DefaultPath, body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	v.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestHandleNotificationDuplicate(t *testing.T) {
	n := verified()

	v := new(mockVerifier)
	v.On("Verify", mock.Anything, mock.Anything).Return(n, nil).Twice()

	d := new(mockDeduper)
	d.On("Seen", n.MessageID).Return(false, nil).Once()
	d.On("Seen", n.MessageID).Return(true, nil).Once()

	calls := 0
	srv := ipnhttp.New(v, func(context.Context, *ipn.VerifiedNotification) error {
		calls++
		return nil
	}, ipnhttp.WithDeduper(d))
	router := srv.Router()

	assert.Equal(t, http.StatusOK, post(t, router, ipnhttp.DefaultPath, body).Code)
	assert.Equal(t, http.StatusOK, post(t, router, ipnhttp.DefaultPath, body).Code)
	assert.Equal(t, 1, calls)

	d.AssertExpectations(t)
}

func TestHandleNotificationHandlerError(t *testing.T) {
	n := verified()

	v := new(mockVerifier)
	v.On("Verify", mock.Anything, mock.Anything).Return(n, nil)

	d := new(mockDeduper)
	d.On("Seen", n.MessageID).Return(false, nil).Once()
	d.On("Forget", n.MessageID).Return(nil).Once()

	srv := ipnhttp.New(v, func(context.Context, *ipn.VerifiedNotification) error {
		return errors.New("order store unavailable")
	}, ipnhttp.WithDeduper(d))

	w := post(t, srv.Router(), ipnhttp.DefaultPath, body)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	d.AssertExpectations(t)
}

func TestHandleNotificationDeduperError(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, mock.Anything).Return(verified(), nil)

	d := new(mockDeduper)
	d.On("Seen", mock.Anything).Return(false, errors.New("connection refused"))

	srv := ipnhttp.New(v, func(context.Context, *ipn.VerifiedNotification) error {
		t.Fatal("handler called without a dedupe decision")
		return nil
	}, ipnhttp.WithDeduper(d))

	w := post(t, srv.Router(), ipnhttp.DefaultPath, body)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRegisterCustomPath(t *testing.T) {
	v := new(mockVerifier)
	v.On("Verify", mock.Anything, mock.Anything).Return(verified(), nil)

	srv := ipnhttp.New(v, func(context.Context, *ipn.VerifiedNotification) error { return nil },
		ipnhttp.WithPath("/hooks/amazon-pay"))

	r := gin.New()
	srv.Register(r)

	assert.Equal(t, http.StatusOK, post(t, r, "/hooks/amazon-pay", body).Code)
	assert.Equal(t, http.StatusNotFound, post(t, r, ipnhttp.DefaultPath, body).Code)
}

func TestRequestIDReused(t *testing.T) {
	id := uuid.NewString()

	r := gin.New()
	r.GET("/", ipnhttp.RequestID(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ipnhttp.HeaderRequestID, id)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, id, w.Header().Get(ipnhttp.HeaderRequestID))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ipnhttp.HeaderRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(ipnhttp.HeaderRequestID))
}
