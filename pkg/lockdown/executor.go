package lockdown

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openidem/lockdown/pkg/audit"
	"github.com/openidem/lockdown/pkg/metrics"
	"github.com/openidem/lockdown/pkg/storage"
)

const tracerName = "github.com/openidem/lockdown/pkg/lockdown"

// Auditor records audit events. Satisfied by audit.Service.
type Auditor interface {
	Record(ctx context.Context, action audit.Action, eventContext map[string]interface{}, actor string) error
}

// Executor performs the lockdown of a single account: it deactivates the
// user, rotates its credential to an unrecoverable hash and terminates
// every session. Steps run in order and any failure aborts the target.
type Executor struct {
	users    storage.UserStore
	sessions storage.SessionStore
	audit    Auditor
	log      *zap.SugaredLogger
}

func NewExecutor(users storage.UserStore, sessions storage.SessionStore, auditor Auditor, log *zap.SugaredLogger) *Executor {
	return &Executor{
		users:    users,
		sessions: sessions,
		audit:    auditor,
		log:      log.Named("executor"),
	}
}

// Execute locks the target account on behalf of triggeredBy. The target's
// password becomes a bcrypt hash of random data that is never stored
// anywhere else, so the old credential cannot be recovered.
func (e *Executor) Execute(ctx context.Context, target *storage.User, triggeredBy *storage.User, reason string) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "lockdown.execute", trace.WithAttributes(
		attribute.String("lockdown.target", target.Username),
		attribute.String("lockdown.triggered_by", triggeredBy.Username),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "lockdown failed")
		}
		span.End()
	}()

	hash, err := rotatedCredentialHash()
	if err != nil {
		return errors.Wrap(err, "generating replacement credential")
	}

	if err := e.users.Deactivate(ctx, target.ID, hash); err != nil {
		return errors.Wrapf(err, "deactivating user %d", target.ID)
	}

	terminated, err := e.sessions.DeleteAllForUser(ctx, target.ID)
	if err != nil {
		return errors.Wrapf(err, "terminating sessions for user %d", target.ID)
	}
	metrics.SessionsTerminated.Add(float64(terminated))

	err = e.audit.Record(ctx, audit.ActionPanicButtonTriggered, map[string]interface{}{
		"reason":        reason,
		"affected_user": target.Username,
		"triggered_by":  triggeredBy.Username,
	}, triggeredBy.Username)
	if err != nil {
		return errors.Wrap(err, "recording audit event")
	}

	e.log.Infow("Account locked down",
		"affectedUser", target.Username,
		"triggeredBy", triggeredBy.Username,
		"sessionsTerminated", terminated)
	return nil
}

// rotatedCredentialHash returns a bcrypt hash of fresh random data. The
// plaintext is discarded immediately, no credential can ever match it
// short of a bcrypt preimage.
func rotatedCredentialHash() (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
