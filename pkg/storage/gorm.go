package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openidem/lockdown/pkg/audit"
	"github.com/openidem/lockdown/pkg/config"
)

// Database wraps the GORM connection and hands out the typed stores.
type Database struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

// Open connects to MySQL and migrates the schema.
func Open(cfg config.Database, log *zap.SugaredLogger) (*Database, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database %s: %w", cfg.Name, err)
	}

	if err := db.AutoMigrate(&User{}, &Group{}, &Tenant{}, &AuditEvent{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	log.Infow("Database connected", "host", cfg.Host, "name", cfg.Name)
	return &Database{db: db, log: log.Named("storage")}, nil
}

func (d *Database) Users() UserStore { return &userStore{db: d.db} }

func (d *Database) Tenants() TenantStore { return &tenantStore{db: d.db} }

func (d *Database) AuditEvents() audit.Store { return &auditEventStore{db: d.db} }

type userStore struct {
	db *gorm.DB
}

func (s *userStore) Get(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user %d: %w", id, err)
	}
	return &user, nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading user %q: %w", username, err)
	}
	return &user, nil
}

func (s *userStore) Deactivate(ctx context.Context, id uint, credentialHash string) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_active": false,
		"password":  credentialHash,
	})
	if res.Error != nil {
		return fmt.Errorf("deactivating user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *userStore) Superusers(ctx context.Context) ([]User, error) {
	var users []User
	err := s.db.WithContext(ctx).
		Distinct("users.*").
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("groups.is_superuser = ?", true).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("listing superusers: %w", err)
	}
	return users, nil
}

func (s *userStore) IsSuperuser(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&User{}).
		Joins("JOIN user_groups ON user_groups.user_id = users.id").
		Joins("JOIN groups ON groups.id = user_groups.group_id").
		Where("users.id = ? AND groups.is_superuser = ?", id, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking superuser membership for user %d: %w", id, err)
	}
	return count > 0, nil
}

type tenantStore struct {
	db *gorm.DB
}

func (s *tenantStore) Active(ctx context.Context) (*Tenant, error) {
	var tenant Tenant
	if err := s.db.WithContext(ctx).Where("is_default = ?", true).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading active tenant: %w", err)
	}
	return &tenant, nil
}

type auditEventStore struct {
	db *gorm.DB
}

func (s *auditEventStore) Create(ctx context.Context, event *audit.Event) error {
	contextJSON, err := json.Marshal(event.Context)
	if err != nil {
		return fmt.Errorf("marshaling context of audit event %s: %w", event.ID, err)
	}
	row := AuditEvent{
		ID:        event.ID,
		Action:    string(event.Action),
		Actor:     event.Actor,
		Context:   string(contextJSON),
		CreatedAt: event.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting audit event %s: %w", event.ID, err)
	}
	return nil
}
