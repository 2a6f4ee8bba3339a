package notification

import (
	"context"

	"depositlink/kit/observability"
)

// Service is a stand-in for the mailer that tells staff about paid and failed
// deposits. Email delivery itself lives outside this service.
type Service struct {
	logger *observability.Logger
}

func NewService(logger *observability.Logger) *Service {
	return &Service{logger: logger}
}

func (s *Service) Notify(ctx context.Context, patientRef string, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.Info("notify", "patient_ref", patientRef, "msg", msg)
}
