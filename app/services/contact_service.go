package services

import (
	"context"
	"strings"

	"github.com/retromusic/storefront/app/jobs"
	"github.com/retromusic/storefront/pkg/logger"
	"github.com/retromusic/storefront/pkg/validate"
)

// ContactInput is the contact form. Either correo or email carries the
// sender address.
type ContactInput struct {
	Name     string `json:"nombre"`
	Email    string `json:"correo"`
	EmailAlt string `json:"email"`
	Message  string `json:"mensaje"`
}

// MissingFieldsError reports which contact form fields were present.
type MissingFieldsError struct {
	Present map[string]bool
}

func (e *MissingFieldsError) Error() string { return "missing contact form fields" }
func (e *MissingFieldsError) Unwrap() error { return ErrValidation }

// ContactService queues acknowledgement mails for the public forms.
type ContactService struct {
	jobs  Dispatcher
	store string
}

func NewContactService(jobs Dispatcher, storeName string) *ContactService {
	return &ContactService{jobs: jobs, store: storeName}
}

// Contact queues a thank-you mail to the sender.
func (s *ContactService) Contact(ctx context.Context, in ContactInput) error {
	name := strings.TrimSpace(in.Name)
	message := strings.TrimSpace(in.Message)
	email := strings.TrimSpace(in.Email)
	if email == "" {
		email = strings.TrimSpace(in.EmailAlt)
	}

	if name == "" || message == "" || email == "" {
		return &MissingFieldsError{Present: map[string]bool{
			"nombre":  name != "",
			"mensaje": message != "",
			"correo":  email != "",
		}}
	}
	if !validate.Email(email) {
		return &ValidationError{Fields: map[string]string{"correo": "El campo correo debe ser un correo válido."}}
	}

	if err := s.jobs.Dispatch(ctx, jobs.ContactThanksMail(s.store, email, name, message)); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("contact: message received")
	return nil
}

// Subscribe queues a welcome mail for a newsletter subscriber.
func (s *ContactService) Subscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if !validate.Email(email) {
		return &ValidationError{Fields: map[string]string{"correo": "El campo correo debe ser un correo válido."}}
	}
	return s.jobs.Dispatch(ctx, jobs.SubscriptionMail(s.store, email))
}
