package storage

import "time"

// User is an identity known to the provider.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Username  string     `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Name      string     `gorm:"type:varchar(255)" json:"name"`
	Email     string     `gorm:"type:varchar(254)" json:"email"`
	Password  string     `gorm:"type:varchar(255);not null" json:"-"` // credential hash, never exposed
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time `json:"last_login"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Groups []Group `gorm:"many2many:user_groups" json:"-"`
}

// Group is a named collection of users. Groups flagged as superuser grant
// platform-administrator capability to their members.
type Group struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"name"`
	IsSuperuser bool      `gorm:"default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`

	Users []User `gorm:"many2many:user_groups" json:"-"`
}

// Tenant holds per-tenant settings. Exactly one tenant is marked default;
// its panic button settings gate and configure the lockdown feature.
type Tenant struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"type:varchar(150);not null" json:"name"`
	Default bool   `gorm:"column:is_default;default:false" json:"default"`

	PanicButtonEnabled        bool   `gorm:"default:false" json:"panic_button_enabled"`
	PanicButtonNotifyUser     bool   `gorm:"default:true" json:"panic_button_notify_user"`
	PanicButtonNotifyAdmins   bool   `gorm:"default:true" json:"panic_button_notify_admins"`
	PanicButtonNotifySecurity bool   `gorm:"default:false" json:"panic_button_notify_security"`
	PanicButtonSecurityEmail  string `gorm:"type:varchar(254)" json:"panic_button_security_email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuditEvent is the durable row backing one audit.Event. Rows are written
// once and never updated or deleted by the service.
type AuditEvent struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Action    string    `gorm:"type:varchar(100);index;not null" json:"action"`
	Actor     string    `gorm:"type:varchar(150);index" json:"actor"`
	Context   string    `gorm:"type:text" json:"context"` // JSON-encoded event context
	CreatedAt time.Time `json:"created_at"`
}

// Session is a live authenticated session record, persisted in Redis.
type Session struct {
	Token         string    `json:"token"`
	UserID        uint      `json:"user_id"`
	LastIP        string    `json:"last_ip"`
	LastUserAgent string    `json:"last_user_agent"`
	CreatedAt     time.Time `json:"created_at"`
}
