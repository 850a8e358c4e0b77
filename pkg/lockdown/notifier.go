package lockdown

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/mail"
	"github.com/openidem/lockdown/pkg/metrics"
	"github.com/openidem/lockdown/pkg/storage"
	"github.com/openidem/lockdown/pkg/tenant"
)

// notifyGap is the spacing between consecutive notification sends for a
// single lockdown, so recipients see a staggered sequence instead of a
// burst.
const notifyGap = 1500 * time.Millisecond

// MailQueue is the slice of the mail queue the notifier needs.
// Satisfied by mail.Queue.
type MailQueue interface {
	EnqueueDelayed(id string, receivers []string, subject, body string, delay time.Duration) error
}

// Notifier fans one lockdown out into up to three notification emails:
// affected user, administrator group, security contact. Every failure in
// here is absorbed and logged, the lockdown itself already happened.
type Notifier struct {
	users        storage.UserStore
	policy       tenant.PolicyProvider
	mail         MailQueue
	brandingName string
	log          *zap.SugaredLogger
}

func NewNotifier(users storage.UserStore, policy tenant.PolicyProvider, mailQueue MailQueue, brandingName string, log *zap.SugaredLogger) *Notifier {
	return &Notifier{
		users:        users,
		policy:       policy,
		mail:         mailQueue,
		brandingName: brandingName,
		log:          log.Named("notifier"),
	}
}

// Run processes a single notification job. Both users are re-read by id;
// if either has vanished since the trigger the job is dropped without
// error.
func (n *Notifier) Run(ctx context.Context, job NotificationJob) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "lockdown.notify", trace.WithAttributes(
		attribute.Int64("lockdown.affected_user_id", int64(job.AffectedUserID)),
	))
	defer span.End()

	affected, err := n.users.Get(ctx, job.AffectedUserID)
	if err != nil {
		n.log.Warnw("Affected user not found, dropping notification job",
			"userID", job.AffectedUserID, "error", err)
		return
	}
	triggeredBy, err := n.users.Get(ctx, job.TriggeredByID)
	if err != nil {
		n.log.Warnw("Triggering user not found, dropping notification job",
			"userID", job.TriggeredByID, "error", err)
		return
	}

	params := mail.PanicMailParams{
		AffectedUsername: affected.Username,
		AffectedName:     affected.Name,
		AffectedEmail:    affected.Email,
		TriggeredBy:      triggeredBy.Username,
		Reason:           job.Reason,
		Timestamp:        time.Now().UTC().Format("2006-01-02 15:04:05 MST"),
		BrandingName:     n.brandingName,
	}

	// Messages go out in a fixed order with a growing delay. The delay
	// slot advances only for messages that are actually sent, so a
	// disabled or empty category does not leave a gap in the ladder.
	slot := 0

	if job.NotifyUser {
		if affected.Email == "" {
			n.log.Infow("Affected user has no email address, skipping user notification",
				"user", affected.Username)
			metrics.NotificationsSkipped.WithLabelValues("user", "no_email").Inc()
		} else {
			n.dispatch(ctx, "user", []string{affected.Email},
				"Your Account Has Been Locked", params, &slot, mail.RenderUserLocked)
		}
	}

	if job.NotifyAdmins {
		recipients, err := n.adminRecipients(ctx, affected.ID)
		switch {
		case err != nil:
			n.log.Errorw("Failed to resolve administrator recipients", "error", err)
			metrics.NotificationsSkipped.WithLabelValues("admins", "lookup_failed").Inc()
		case len(recipients) == 0:
			n.log.Infow("No administrator recipients, skipping admin notification",
				"affectedUser", affected.Username)
			metrics.NotificationsSkipped.WithLabelValues("admins", "no_recipients").Inc()
		default:
			n.dispatch(ctx, "admins", recipients,
				fmt.Sprintf("Panic Button Triggered: %s", affected.Username),
				params, &slot, mail.RenderAdminAlert)
		}
	}

	if job.NotifySecurity {
		policy, err := n.policy.ActivePolicy(ctx)
		switch {
		case err != nil:
			n.log.Errorw("Failed to load tenant policy for security notification", "error", err)
			metrics.NotificationsSkipped.WithLabelValues("security", "lookup_failed").Inc()
		case policy.SecurityEmail == "":
			n.log.Infow("No security contact configured, skipping security notification")
			metrics.NotificationsSkipped.WithLabelValues("security", "no_recipients").Inc()
		default:
			n.dispatch(ctx, "security", []string{policy.SecurityEmail},
				fmt.Sprintf("SECURITY ALERT: Panic Button Triggered for %s", affected.Username),
				params, &slot, mail.RenderSecurityAlert)
		}
	}
}

// adminRecipients returns the email addresses of all superuser-group
// members, excluding the affected user itself.
func (n *Notifier) adminRecipients(ctx context.Context, affectedID uint) ([]string, error) {
	admins, err := n.users.Superusers(ctx)
	if err != nil {
		return nil, err
	}
	recipients := make([]string, 0, len(admins))
	for _, admin := range admins {
		if admin.ID == affectedID || admin.Email == "" {
			continue
		}
		recipients = append(recipients, admin.Email)
	}
	return recipients, nil
}

func (n *Notifier) dispatch(_ context.Context, category string, receivers []string,
	subject string, params mail.PanicMailParams, slot *int,
	render func(mail.PanicMailParams) (string, error),
) {
	delay := notifyGap * time.Duration(*slot)

	body, err := render(params)
	if err != nil {
		n.log.Errorw("Failed to render notification body",
			"category", category, "error", err)
		metrics.NotificationsSkipped.WithLabelValues(category, "render_failed").Inc()
		return
	}

	id := fmt.Sprintf("lockdown-%s-%s", category, uuid.NewString())
	if err := n.mail.EnqueueDelayed(id, receivers, subject, body, delay); err != nil {
		n.log.Errorw("Failed to enqueue notification",
			"category", category, "error", err)
		metrics.NotificationsSkipped.WithLabelValues(category, "enqueue_failed").Inc()
		return
	}

	// only queued messages occupy a slot, so failed categories compact
	// out of the delay ladder like skipped ones
	*slot++
	metrics.NotificationsDispatched.WithLabelValues(category).Inc()
	n.log.Infow("Notification queued",
		"category", category,
		"receivers", len(receivers),
		"delay", delay)
}
