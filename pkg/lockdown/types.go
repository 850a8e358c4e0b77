package lockdown

// TriggerRequest is the request body for locking a single account.
// The notify flags are optional overrides; when a flag is omitted the
// active tenant's default applies.
type TriggerRequest struct {
	Reason         string `json:"reason"`
	NotifyUser     *bool  `json:"notify_user"`
	NotifyAdmins   *bool  `json:"notify_admins"`
	NotifySecurity *bool  `json:"notify_security"`
}

// BulkTriggerRequest is the request body for locking several accounts at
// once. Users is a pointer so a missing field can be told apart from an
// explicitly empty list.
type BulkTriggerRequest struct {
	Users          *[]uint `json:"users"`
	Reason         string  `json:"reason"`
	NotifyUser     *bool   `json:"notify_user"`
	NotifyAdmins   *bool   `json:"notify_admins"`
	NotifySecurity *bool   `json:"notify_security"`
}

// NotificationJob carries everything the notifier needs to build and
// dispatch the notification set for one locked account. Only ids are
// stored, the notifier re-reads both users when the job runs.
type NotificationJob struct {
	AffectedUserID uint
	TriggeredByID  uint
	Reason         string
	NotifyUser     bool
	NotifyAdmins   bool
	NotifySecurity bool
}
