package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"depositlink/cmd/web/validator"
	"depositlink/kit/db"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentNotifierMock struct{ mock.Mock }

func (m *paymentNotifierMock) MarkProcessing(ctx context.Context, enrollmentID, gatewayRef string) error {
	args := m.Called(ctx, enrollmentID, gatewayRef)
	return args.Error(0)
}

func (m *paymentNotifierMock) MarkPaid(ctx context.Context, enrollmentID, gatewayRef string) error {
	args := m.Called(ctx, enrollmentID, gatewayRef)
	return args.Error(0)
}

func (m *paymentNotifierMock) MarkFailed(ctx context.Context, enrollmentID, reason string) error {
	args := m.Called(ctx, enrollmentID, reason)
	return args.Error(0)
}

func TestWebhook_Payment(t *testing.T) {
	const secret = "whsec_test"

	mkReq := func(t *testing.T, body any, secretHeader string) *http.Request {
		req := jsonReq(t, http.MethodPost, "/webhooks/payments", body)
		if secretHeader != "" {
			req.Header.Set(webhookSecretHeader, secretHeader)
		}
		return req
	}

	var tests = []struct {
		name       string
		req        func(t *testing.T) *http.Request
		handler    func() *Webhook
		assertResp func(t *testing.T, rr *httptest.ResponseRecorder)
	}{
		{
			name: "missing secret returns 401",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.succeeded"}, "")
			},
			handler: func() *Webhook {
				return NewWebhook(validator.NewJSON(), new(paymentNotifierMock), secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, rr.Code)
			},
		},
		{
			name: "wrong secret returns 401",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.succeeded"}, "whsec_other")
			},
			handler: func() *Webhook {
				return NewWebhook(validator.NewJSON(), new(paymentNotifierMock), secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, rr.Code)
			},
		},
		{
			name: "unconfigured secret rejects everything",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.succeeded"}, "")
			},
			handler: func() *Webhook {
				return NewWebhook(validator.NewJSON(), new(paymentNotifierMock), "")
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusUnauthorized, rr.Code)
			},
		},
		{
			name: "unknown event returns 400",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.refunded"}, secret)
			},
			handler: func() *Webhook {
				return NewWebhook(validator.NewJSON(), new(paymentNotifierMock), secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, rr.Code)
			},
		},
		{
			name: "succeeded marks paid",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.succeeded", GatewayRef: "gw-9"}, secret)
			},
			handler: func() *Webhook {
				svc := new(paymentNotifierMock)
				svc.On("MarkPaid", mock.Anything, "e1", "gw-9").Return(nil)
				return NewWebhook(validator.NewJSON(), svc, secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, rr.Code)
			},
		},
		{
			name: "failed carries the reason",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.failed", Reason: "card_declined"}, secret)
			},
			handler: func() *Webhook {
				svc := new(paymentNotifierMock)
				svc.On("MarkFailed", mock.Anything, "e1", "card_declined").Return(nil)
				return NewWebhook(validator.NewJSON(), svc, secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, rr.Code)
			},
		},
		{
			name: "transition conflict returns 409",
			req: func(t *testing.T) *http.Request {
				return mkReq(t, paymentWebhookReq{EnrollmentID: "e1", Event: "payment.processing", GatewayRef: "gw-9"}, secret)
			},
			handler: func() *Webhook {
				svc := new(paymentNotifierMock)
				svc.On("MarkProcessing", mock.Anything, "e1", "gw-9").Return(db.ErrConflict)
				return NewWebhook(validator.NewJSON(), svc, secret)
			},
			assertResp: func(t *testing.T, rr *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusConflict, rr.Code)
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rr := httptest.NewRecorder()
			h := tt.handler()
			h.Payment(rr, tt.req(t))
			tt.assertResp(t, rr)
		})
	}
}
