package lockdown

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/openidem/lockdown/pkg/audit"
	"github.com/openidem/lockdown/pkg/storage"
	"github.com/openidem/lockdown/pkg/tenant"
)

type fakeUserStore struct {
	mu         sync.Mutex
	users      map[uint]*storage.User
	superusers map[uint]bool
	getErr     error
	deactErr   error
	superErr   error

	deactivated []uint
}

func newFakeUserStore(users ...*storage.User) *fakeUserStore {
	f := &fakeUserStore{
		users:      map[uint]*storage.User{},
		superusers: map[uint]bool{},
	}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserStore) Get(_ context.Context, id uint) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) Deactivate(_ context.Context, id uint, credentialHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deactErr != nil {
		return f.deactErr
	}
	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsActive = false
	u.Password = credentialHash
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeUserStore) Superusers(_ context.Context) ([]storage.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.superErr != nil {
		return nil, f.superErr
	}
	result := []storage.User{}
	for id, is := range f.superusers {
		if is {
			if u, ok := f.users[id]; ok {
				result = append(result, *u)
			}
		}
	}
	return result, nil
}

func (f *fakeUserStore) IsSuperuser(_ context.Context, id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.superErr != nil {
		return false, f.superErr
	}
	return f.superusers[id], nil
}

type fakeSessionStore struct {
	mu      sync.Mutex
	deleted []uint
	counts  map[uint]int
	err     error
}

func (f *fakeSessionStore) Create(_ context.Context, _ *storage.Session) error { return nil }

func (f *fakeSessionStore) Get(_ context.Context, _ string) (*storage.Session, error) {
	return nil, storage.ErrNotFound
}

func (f *fakeSessionStore) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeSessionStore) DeleteAllForUser(_ context.Context, userID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.deleted = append(f.deleted, userID)
	if f.counts == nil {
		return 0, nil
	}
	return f.counts[userID], nil
}

type recordedAuditEvent struct {
	action  audit.Action
	context map[string]interface{}
	actor   string
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []recordedAuditEvent
	err    error
}

func (f *fakeAuditor) Record(_ context.Context, action audit.Action, eventContext map[string]interface{}, actor string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, recordedAuditEvent{action: action, context: eventContext, actor: actor})
	return nil
}

type enqueuedMail struct {
	id        string
	receivers []string
	subject   string
	body      string
	delay     time.Duration
}

type fakeMailQueue struct {
	mu    sync.Mutex
	mails []enqueuedMail
	err   error

	// errCategory fails enqueues for one notification category only
	errCategory string
}

func (f *fakeMailQueue) EnqueueDelayed(id string, receivers []string, subject, body string, delay time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.errCategory != "" && strings.HasPrefix(id, "lockdown-"+f.errCategory+"-") {
		return errors.New("queue full")
	}
	f.mails = append(f.mails, enqueuedMail{
		id:        id,
		receivers: receivers,
		subject:   subject,
		body:      body,
		delay:     delay,
	})
	return nil
}

type fakePolicyProvider struct {
	policy tenant.PanicPolicy
	err    error
}

func (f *fakePolicyProvider) ActivePolicy(_ context.Context) (tenant.PanicPolicy, error) {
	if f.err != nil {
		return tenant.PanicPolicy{}, f.err
	}
	return f.policy, nil
}

type fakeSubmitter struct {
	mu   sync.Mutex
	jobs []NotificationJob
}

func (f *fakeSubmitter) Submit(job NotificationJob) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return true
}
