package handlers

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"

	"depositlink/cmd/web/validator"
)

const webhookSecretHeader = "X-Webhook-Secret"

type PaymentNotifierContract interface {
	MarkProcessing(ctx context.Context, enrollmentID, gatewayRef string) error
	MarkPaid(ctx context.Context, enrollmentID, gatewayRef string) error
	MarkFailed(ctx context.Context, enrollmentID, reason string) error
}

// Webhook receives payment gateway callbacks and drives the corresponding
// status transitions.
type Webhook struct {
	json       *validator.JSON
	enrollment PaymentNotifierContract
	secret     string
}

func NewWebhook(jsonV *validator.JSON, svc PaymentNotifierContract, secret string) *Webhook {
	return &Webhook{json: jsonV, enrollment: svc, secret: secret}
}

type paymentWebhookReq struct {
	EnrollmentID string `json:"enrollment_id"`
	Event        string `json:"event"`
	GatewayRef   string `json:"gateway_ref"`
	Reason       string `json:"reason"`
}

func (h *Webhook) Payment(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(webhookSecretHeader)), []byte(h.secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid webhook secret")
		return
	}

	var req paymentWebhookReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.EnrollmentID == "" {
		writeError(w, http.StatusBadRequest, "missing enrollment_id")
		return
	}

	var err error
	switch req.Event {
	case "payment.processing":
		err = h.enrollment.MarkProcessing(r.Context(), req.EnrollmentID, req.GatewayRef)
	case "payment.succeeded":
		err = h.enrollment.MarkPaid(r.Context(), req.EnrollmentID, req.GatewayRef)
	case "payment.failed":
		err = h.enrollment.MarkFailed(r.Context(), req.EnrollmentID, req.Reason)
	default:
		writeError(w, http.StatusBadRequest, "unknown event: "+req.Event)
		return
	}
	if err != nil {
		log.Printf("layer=handler component=webhook method=Payment enrollment_id=%s event=%s err=%v", req.EnrollmentID, req.Event, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
