package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"depositlink/cmd/web/validator"
	"depositlink/internal/enrollment"
	"depositlink/internal/health"
	"depositlink/internal/readmodels"
)

type EnrollmentServiceContract interface {
	Create(ctx context.Context, req enrollment.CreateRequest) (*enrollment.Enrollment, string, error)
	FetchByToken(ctx context.Context, plainToken string) (*enrollment.Enrollment, error)
	MarkSent(ctx context.Context, enrollmentID string) error
	AcceptTerms(ctx context.Context, plainToken, policyRef string) error
	Cancel(ctx context.Context, enrollmentID, reason string) error
	Regenerate(ctx context.Context, req enrollment.RegenerateRequest) (*enrollment.Enrollment, string, error)
	SweepExpired(ctx context.Context, now time.Time, limit int) (int, error)
	Get(ctx context.Context, enrollmentID string) (*enrollment.Enrollment, error)
}

type EnrollmentHealthContract interface {
	Check(ctx context.Context) health.Result
}

type FunnelContract interface {
	Funnel() readmodels.FunnelCounts
}

type Enrollment struct {
	json       *validator.JSON
	enrollment EnrollmentServiceContract
	health     EnrollmentHealthContract
	funnel     FunnelContract
	sweepLimit int
}

func NewEnrollment(jsonV *validator.JSON, svc EnrollmentServiceContract, healthSvc EnrollmentHealthContract, funnel FunnelContract, sweepLimit int) *Enrollment {
	if sweepLimit <= 0 {
		sweepLimit = 200
	}
	return &Enrollment{json: jsonV, enrollment: svc, health: healthSvc, funnel: funnel, sweepLimit: sweepLimit}
}

type createEnrollmentReq struct {
	PatientRef  string `json:"patient_ref"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PolicyRef   string `json:"policy_ref"`
	ExpiresAt   string `json:"expires_at"`
	CRMModule   string `json:"crm_module"`
	CRMRecordID string `json:"crm_record_id"`
}

func (h *Enrollment) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnrollmentReq
	if err := h.json.Decode(w, r, &req); err != nil {
		log.Printf("layer=handler component=enrollment method=Create err=%v", err)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if h.health != nil {
		res := h.health.Check(r.Context())
		if !res.OK {
			log.Printf("layer=handler component=enrollment method=Create err=service_unavailable checks=%v", res.Checks)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "down", "checks": res.Checks})
			return
		}
	}

	var expiresAt time.Time
	if req.ExpiresAt != "" {
		var err error
		expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_at must be RFC 3339")
			return
		}
	}

	e, token, err := h.enrollment.Create(r.Context(), enrollment.CreateRequest{
		PatientRef:  req.PatientRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		PolicyRef:   req.PolicyRef,
		ExpiresAt:   expiresAt,
		CRMModule:   req.CRMModule,
		CRMRecordID: req.CRMRecordID,
	})
	if err != nil {
		log.Printf("layer=handler component=enrollment method=Create patient_ref=%s err=%v", req.PatientRef, err)
		writeDomainError(w, err)
		return
	}

	body := enrollmentBody(e)
	// Plaintext token leaves the system exactly once, here.
	body["token"] = token
	writeJSON(w, http.StatusCreated, body)
}

func (h *Enrollment) FetchByToken(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	e, err := h.enrollment.FetchByToken(r.Context(), token)
	if err != nil {
		log.Printf("layer=handler component=enrollment method=FetchByToken err=%v", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patientBody(e))
}

type acceptTermsReq struct {
	PolicyRef string `json:"policy_ref"`
}

func (h *Enrollment) AcceptTerms(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing token")
		return
	}
	var req acceptTermsReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.enrollment.AcceptTerms(r.Context(), token, req.PolicyRef); err != nil {
		log.Printf("layer=handler component=enrollment method=AcceptTerms err=%v", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

func (h *Enrollment) MarkSent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing enrollment id")
		return
	}
	if err := h.enrollment.MarkSent(r.Context(), id); err != nil {
		log.Printf("layer=handler component=enrollment method=MarkSent enrollment_id=%s err=%v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrollment_id": id, "status": enrollment.StatusSent})
}

type regenerateReq struct {
	ExpiresAt string `json:"expires_at"`
}

func (h *Enrollment) Regenerate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing enrollment id")
		return
	}
	var req regenerateReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	var expiresAt time.Time
	if req.ExpiresAt != "" {
		var err error
		expiresAt, err = time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_at must be RFC 3339")
			return
		}
	}

	e, token, err := h.enrollment.Regenerate(r.Context(), enrollment.RegenerateRequest{EnrollmentID: id, ExpiresAt: expiresAt})
	if err != nil {
		log.Printf("layer=handler component=enrollment method=Regenerate enrollment_id=%s err=%v", id, err)
		writeDomainError(w, err)
		return
	}

	body := enrollmentBody(e)
	body["token"] = token
	writeJSON(w, http.StatusOK, body)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *Enrollment) Cancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing enrollment id")
		return
	}
	var req cancelReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.enrollment.Cancel(r.Context(), id, req.Reason); err != nil {
		log.Printf("layer=handler component=enrollment method=Cancel enrollment_id=%s err=%v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enrollment_id": id, "status": enrollment.StatusCanceled})
}

func (h *Enrollment) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing enrollment id")
		return
	}
	e, err := h.enrollment.Get(r.Context(), id)
	if err != nil {
		log.Printf("layer=handler component=enrollment method=Get enrollment_id=%s err=%v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, enrollmentBody(e))
}

// Sweep runs one expiry pass. Exposed for the platform scheduler; the sweeper
// binary covers deployments without one.
func (h *Enrollment) Sweep(w http.ResponseWriter, r *http.Request) {
	swept, err := h.enrollment.SweepExpired(r.Context(), time.Now().UTC(), h.sweepLimit)
	if err != nil {
		log.Printf("layer=handler component=enrollment method=Sweep err=%v", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expired": swept})
}

func (h *Enrollment) Funnel(w http.ResponseWriter, r *http.Request) {
	if h.funnel == nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	c := h.funnel.Funnel()
	writeJSON(w, http.StatusOK, map[string]any{
		"created":    c.Created,
		"sent":       c.Sent,
		"opened":     c.Opened,
		"processing": c.Processing,
		"paid":       c.Paid,
		"failed":     c.Failed,
		"expired":    c.Expired,
		"canceled":   c.Canceled,
	})
}

// enrollmentBody is the admin-facing projection of a row.
func enrollmentBody(e *enrollment.Enrollment) map[string]any {
	return map[string]any{
		"enrollment_id": e.ID,
		"patient_ref":   e.PatientRef,
		"amount":        e.Amount,
		"currency":      e.Currency,
		"status":        e.Status,
		"token_last4":   e.TokenLast4,
		"policy_ref":    e.PolicyRef,
		"crm_module":    e.CRMModule,
		"crm_record_id": e.CRMRecordID,
		"gateway_ref":   e.GatewayRef,
		"fail_reason":   e.FailReason,
		"expires_at":    e.ExpiresAt,
		"created_at":    e.CreatedAt,
		"paid_at":       e.PaidAt,
		"expired_at":    e.ExpiredAt,
	}
}

// patientBody omits internal linkage; it backs the patient-facing page.
func patientBody(e *enrollment.Enrollment) map[string]any {
	return map[string]any{
		"enrollment_id":     e.ID,
		"amount":            e.Amount,
		"currency":          e.Currency,
		"status":            e.Status,
		"policy_ref":        e.PolicyRef,
		"expires_at":        e.ExpiresAt,
		"terms_accepted_at": e.TermsAcceptedAt,
	}
}
