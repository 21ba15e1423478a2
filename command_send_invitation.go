package newsletter

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type SendInvitationMessage struct {
	UserID       uuid.UUID `json:"user_id"`
	Subscribers  []string  `json:"subscribers"`
	Subject      string    `json:"subject"`
	Body         string    `json:"body"`
	FromOverride string    `json:"from_override"`
}

func (e SendInvitationMessage) Type() string { return "invitation.send" }

// SendInvitationResult summarizes one batch: how many messages the transport
// accepted and how many it rejected. Per-address outcomes live in the audit
// log, not here.
type SendInvitationResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendInvitationHandler delivers invitation mail through the configured
// transport and records every attempt. A transport failure for one address
// does not abort the batch.
type SendInvitationHandler struct {
	repo   RepositoryManager
	mailer Mailer
	logger Logger
}

func NewSendInvitationHandler(repo RepositoryManager, mailer Mailer) *SendInvitationHandler {
	return &SendInvitationHandler{
		repo:   repo,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *SendInvitationHandler) WithLogger(l Logger) *SendInvitationHandler {
	if l != nil {
		h.logger = l
	}
	return h
}

func (h *SendInvitationHandler) Execute(ctx context.Context, event SendInvitationMessage) (*SendInvitationResult, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during invitation send",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendInvitationHandler) execute(ctx context.Context, event SendInvitationMessage) (*SendInvitationResult, error) {
	if h.mailer == nil {
		return nil, goerrors.New("no mail transport configured", goerrors.CategoryInternal)
	}

	if len(event.Subscribers) == 0 {
		return nil, NewBadRequest("no recipients provided", nil)
	}

	result := &SendInvitationResult{}

	for _, to := range event.Subscribers {
		record := &InvitationEmail{
			UserID:          event.UserID,
			SubscriberEmail: to,
			Subject:         event.Subject,
		}

		sendCtx, cancel := context.WithTimeout(ctx, time.Second*30)
		err := h.mailer.Send(sendCtx, to, event.Subject, event.Body)
		cancel()

		if err != nil {
			record.Status = InvitationFailed
			record.Error = err.Error()
			result.Failed++
			h.logger.Error("invitation send failed for %s: %v", to, err)
		} else {
			record.Status = InvitationSent
			result.Sent++
		}

		if _, aerr := h.repo.InvitationEmails().Record(ctx, record); aerr != nil {
			// The mail may already be out, so keep going but surface
			// the audit failure.
			h.logger.Error("failed to record invitation audit for %s: %v", to, aerr)
		}
	}

	return result, nil
}

// RenderInvitationSubject fills the default subject when none is provided.
func RenderInvitationSubject(subject, newsletterName string) string {
	if subject != "" {
		return subject
	}
	return fmt.Sprintf("You are invited to subscribe to %s", newsletterName)
}
