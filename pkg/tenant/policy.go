// Package tenant exposes the active tenant's panic button policy as a
// read-only value. The policy is owned by tenant administration; this
// service only ever reads it.
package tenant

import (
	"context"

	"github.com/openidem/lockdown/pkg/storage"
)

// PanicPolicy is the active tenant's panic button configuration, read fresh
// at request evaluation time.
type PanicPolicy struct {
	Enabled               bool
	NotifyUserDefault     bool
	NotifyAdminsDefault   bool
	NotifySecurityDefault bool
	SecurityEmail         string
}

// PolicyProvider looks up the currently active tenant's panic policy.
type PolicyProvider interface {
	ActivePolicy(ctx context.Context) (PanicPolicy, error)
}

// StoreProvider reads the policy from the tenant store.
type StoreProvider struct {
	tenants storage.TenantStore
}

func NewStoreProvider(tenants storage.TenantStore) *StoreProvider {
	return &StoreProvider{tenants: tenants}
}

// ActivePolicy returns the default tenant's panic policy. A missing tenant
// row yields a disabled policy rather than an error.
func (p *StoreProvider) ActivePolicy(ctx context.Context) (PanicPolicy, error) {
	t, err := p.tenants.Active(ctx)
	if err == storage.ErrNotFound {
		return PanicPolicy{}, nil
	}
	if err != nil {
		return PanicPolicy{}, err
	}
	return PanicPolicy{
		Enabled:               t.PanicButtonEnabled,
		NotifyUserDefault:     t.PanicButtonNotifyUser,
		NotifyAdminsDefault:   t.PanicButtonNotifyAdmins,
		NotifySecurityDefault: t.PanicButtonNotifySecurity,
		SecurityEmail:         t.PanicButtonSecurityEmail,
	}, nil
}
