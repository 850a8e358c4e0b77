package lockdown

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/api"
	"github.com/openidem/lockdown/pkg/apiresponses"
	"github.com/openidem/lockdown/pkg/metrics"
	"github.com/openidem/lockdown/pkg/storage"
	"github.com/openidem/lockdown/pkg/tenant"
)

// JobSubmitter hands notification jobs to the background worker.
// Satisfied by Worker.
type JobSubmitter interface {
	Submit(job NotificationJob) bool
}

// Controller exposes the panic button endpoints. Only members of a
// superuser group may trigger a lockdown, and never against themselves.
type Controller struct {
	log        *zap.SugaredLogger
	users      storage.UserStore
	policy     tenant.PolicyProvider
	executor   *Executor
	jobs       JobSubmitter
	middleware []gin.HandlerFunc
}

func NewController(log *zap.SugaredLogger, users storage.UserStore, policy tenant.PolicyProvider,
	executor *Executor, jobs JobSubmitter, middleware ...gin.HandlerFunc,
) *Controller {
	return &Controller{
		log:        log.Named("lockdown"),
		users:      users,
		policy:     policy,
		executor:   executor,
		jobs:       jobs,
		middleware: middleware,
	}
}

func (Controller) BasePath() string {
	return "users/"
}

func (ct *Controller) Register(rg *gin.RouterGroup) error {
	rg.POST("/:id/panic-button", ct.handleTrigger)
	rg.POST("/panic-button-bulk", ct.handleTriggerBulk)

	return nil
}

func (ct *Controller) Handlers() []gin.HandlerFunc {
	return ct.middleware
}

func (ct *Controller) handleTrigger(c *gin.Context) {
	caller, ok := ct.requireAdmin(c)
	if !ok {
		return
	}

	request := TriggerRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body")
		return
	}

	if strings.TrimSpace(request.Reason) == "" {
		metrics.LockdownsRejected.WithLabelValues("missing_reason").Inc()
		apiresponses.RespondFieldRequired(c, "reason")
		return
	}

	policy, ok := ct.requireEnabledPolicy(c)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apiresponses.RespondNotFound(c, "user", c.Param("id"))
		return
	}

	if uint(targetID) == caller.ID {
		metrics.LockdownsRejected.WithLabelValues("self_target").Inc()
		apiresponses.RespondNonFieldError(c, "Cannot trigger panic button on yourself")
		return
	}

	target, err := ct.users.Get(c.Request.Context(), uint(targetID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			apiresponses.RespondNotFound(c, "user", c.Param("id"))
			return
		}
		apiresponses.RespondInternalError(c, "load target user", err, ct.log)
		return
	}

	if err := ct.executor.Execute(c.Request.Context(), target, caller, request.Reason); err != nil {
		metrics.LockdownsFailed.WithLabelValues("single").Inc()
		apiresponses.RespondInternalError(c, "lock down account", err, ct.log)
		return
	}
	metrics.LockdownsTriggered.WithLabelValues("single").Inc()

	ct.submitJob(target.ID, caller.ID, request.Reason,
		request.NotifyUser, request.NotifyAdmins, request.NotifySecurity, policy)

	apiresponses.RespondNoContent(c)
}

func (ct *Controller) handleTriggerBulk(c *gin.Context) {
	caller, ok := ct.requireAdmin(c)
	if !ok {
		return
	}

	request := BulkTriggerRequest{}
	if err := json.NewDecoder(c.Request.Body).Decode(&request); err != nil {
		apiresponses.RespondBadRequest(c, "invalid request body")
		return
	}

	if strings.TrimSpace(request.Reason) == "" {
		metrics.LockdownsRejected.WithLabelValues("missing_reason").Inc()
		apiresponses.RespondFieldRequired(c, "reason")
		return
	}
	if request.Users == nil {
		metrics.LockdownsRejected.WithLabelValues("missing_users").Inc()
		apiresponses.RespondFieldRequired(c, "users")
		return
	}

	policy, ok := ct.requireEnabledPolicy(c)
	if !ok {
		return
	}

	seen := make(map[uint]struct{}, len(*request.Users))
	for _, targetID := range *request.Users {
		if _, dup := seen[targetID]; dup {
			continue
		}
		seen[targetID] = struct{}{}
		if targetID == caller.ID {
			// the caller can never lock itself out, not even buried in a
			// bulk list
			ct.log.Debugw("Filtered caller from bulk lockdown", "user", caller.Username)
			continue
		}

		target, err := ct.users.Get(c.Request.Context(), targetID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				ct.log.Warnw("Skipping unknown user in bulk lockdown", "userID", targetID)
				continue
			}
			ct.log.Errorw("Failed to load user in bulk lockdown", "userID", targetID, "error", err)
			metrics.LockdownsFailed.WithLabelValues("bulk").Inc()
			continue
		}

		if err := ct.executor.Execute(c.Request.Context(), target, caller, request.Reason); err != nil {
			ct.log.Errorw("Failed to lock down account in bulk lockdown",
				"user", target.Username, "error", err)
			metrics.LockdownsFailed.WithLabelValues("bulk").Inc()
			continue
		}
		metrics.LockdownsTriggered.WithLabelValues("bulk").Inc()

		ct.submitJob(target.ID, caller.ID, request.Reason,
			request.NotifyUser, request.NotifyAdmins, request.NotifySecurity, policy)
	}

	apiresponses.RespondNoContent(c)
}

// requireAdmin resolves the caller and verifies superuser membership.
// Writes the error response itself when the check fails.
func (ct *Controller) requireAdmin(c *gin.Context) (*storage.User, bool) {
	caller := api.CurrentUser(c)
	if caller == nil {
		apiresponses.RespondForbidden(c, "Authentication credentials were not provided.")
		return nil, false
	}

	isAdmin, err := ct.users.IsSuperuser(c.Request.Context(), caller.ID)
	if err != nil {
		apiresponses.RespondInternalError(c, "check caller permissions", err, ct.log)
		return nil, false
	}
	if !isAdmin {
		metrics.LockdownsRejected.WithLabelValues("not_admin").Inc()
		apiresponses.RespondForbidden(c, "You do not have permission to perform this action.")
		return nil, false
	}
	return caller, true
}

// requireEnabledPolicy loads the active tenant policy and rejects the
// request when the feature is disabled.
func (ct *Controller) requireEnabledPolicy(c *gin.Context) (tenant.PanicPolicy, bool) {
	policy, err := ct.policy.ActivePolicy(c.Request.Context())
	if err != nil {
		apiresponses.RespondInternalError(c, "load tenant policy", err, ct.log)
		return tenant.PanicPolicy{}, false
	}
	if !policy.Enabled {
		metrics.LockdownsRejected.WithLabelValues("disabled").Inc()
		apiresponses.RespondNonFieldError(c, "Panic button feature is disabled")
		return tenant.PanicPolicy{}, false
	}
	return policy, true
}

func (ct *Controller) submitJob(affectedID, triggeredByID uint, reason string,
	notifyUser, notifyAdmins, notifySecurity *bool, policy tenant.PanicPolicy,
) {
	ct.jobs.Submit(NotificationJob{
		AffectedUserID: affectedID,
		TriggeredByID:  triggeredByID,
		Reason:         reason,
		NotifyUser:     resolveFlag(notifyUser, policy.NotifyUserDefault),
		NotifyAdmins:   resolveFlag(notifyAdmins, policy.NotifyAdminsDefault),
		NotifySecurity: resolveFlag(notifySecurity, policy.NotifySecurityDefault),
	})
}

// resolveFlag applies a per-request override on top of the tenant default.
func resolveFlag(override *bool, def bool) bool {
	if override != nil {
		return *override
	}
	return def
}
