package portfolio

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/storage/models"
	"github.com/portfolio/backend/pkg/logger"
)

var ErrIncompleteMessage = errors.New("name, email and message are required")

// SubmitContact stores one message stamped with the server's clock.
func (s *Service) SubmitContact(ctx context.Context, msg models.ContactMessage) (models.ContactMessage, error) {
	msg.ID = ""
	msg.Timestamp = s.now().UTC()

	saved, err := s.messages.Add(ctx, msg)
	if err != nil {
		storeFailed("add", models.CollectionMessages, err)
		return saved, err
	}

	metrics.ContactMessages.Inc()
	logger.Info("Contact message stored",
		zap.String("id", saved.ID),
		zap.String("subject", saved.Subject),
	)
	return saved, nil
}

type ContactSubmitter interface {
	SubmitContact(ctx context.Context, msg models.ContactMessage) (models.ContactMessage, error)
}

// ContactForm is the visitor-facing form state.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (f *ContactForm) Validate() error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Email) == "" || strings.TrimSpace(f.Message) == "" {
		return ErrIncompleteMessage
	}
	return nil
}

// Submit writes the form as one message and clears it. On failure the
// fields are kept so the visitor can retry.
func (f *ContactForm) Submit(ctx context.Context, svc ContactSubmitter) (models.ContactMessage, error) {
	if err := f.Validate(); err != nil {
		return models.ContactMessage{}, err
	}

	saved, err := svc.SubmitContact(ctx, models.ContactMessage{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Subject: strings.TrimSpace(f.Subject),
		Message: f.Message,
	})
	if err != nil {
		return saved, err
	}

	*f = ContactForm{}
	return saved, nil
}
