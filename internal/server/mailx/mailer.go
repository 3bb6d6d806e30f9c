// Package mailx is the outbound-mail seam. Delivery mechanics are
// deployment-specific and live behind the Mailer interface; the default
// implementation only logs that a message was queued.
package mailx

import (
	"context"

	"github.com/roadsvr/backend/internal/logging"
)

type Mailer interface {
	// SendPasswordReset delivers a temporary password to the user.
	SendPasswordReset(ctx context.Context, email, name, tempPassword string) error
}

type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(l logging.Logger) *LogMailer {
	return &LogMailer{logger: l.With("module", "mailer")}
}

// SendPasswordReset records the request without the temporary password.
func (m *LogMailer) SendPasswordReset(ctx context.Context, email, name, tempPassword string) error {
	m.logger.Info(ctx, "password reset mail queued", "email", email)
	return nil
}
