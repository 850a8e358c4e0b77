package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/openidem/lockdown/pkg/storage"
	"github.com/openidem/lockdown/pkg/system"
)

type fakeSessionStore struct {
	sessions map[string]*storage.Session
	err      error
}

func (f *fakeSessionStore) Create(_ context.Context, s *storage.Session) error {
	f.sessions[s.Token] = s
	return nil
}

func (f *fakeSessionStore) Get(_ context.Context, token string) (*storage.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return s, nil
}

func (f *fakeSessionStore) Delete(_ context.Context, token string) error {
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessionStore) DeleteAllForUser(_ context.Context, userID uint) (int, error) {
	n := 0
	for token, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

type fakeUserStore struct {
	users map[uint]*storage.User
}

func (f *fakeUserStore) Get(_ context.Context, id uint) (*storage.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByUsername(_ context.Context, username string) (*storage.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) Deactivate(_ context.Context, id uint, credentialHash string) error {
	u, ok := f.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.IsActive = false
	u.Password = credentialHash
	return nil
}

func (f *fakeUserStore) Superusers(_ context.Context) ([]storage.User, error) {
	return nil, nil
}

func (f *fakeUserStore) IsSuperuser(_ context.Context, id uint) (bool, error) {
	return false, nil
}

func authTestRouter(sessions *fakeSessionStore, users *fakeUserStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuth(sessions, users, system.NewTestLogger())

	router := gin.New()
	router.GET("/protected", auth.Middleware(), func(c *gin.Context) {
		user := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*storage.Session{
		"tok-1": {Token: "tok-1", UserID: 7},
	}}
	users := &fakeUserStore{users: map[uint]*storage.User{
		7: {ID: 7, Username: "jdoe", IsActive: true},
	}}
	router := authTestRouter(sessions, users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jdoe")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := authTestRouter(
		&fakeSessionStore{sessions: map[string]*storage.Session{}},
		&fakeUserStore{users: map[uint]*storage.User{}},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication credentials were not provided.")
}

func TestAuthMiddleware_UnknownToken(t *testing.T) {
	router := authTestRouter(
		&fakeSessionStore{sessions: map[string]*storage.Session{}},
		&fakeUserStore{users: map[uint]*storage.User{}},
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Bearer nope")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token.")
}

func TestAuthMiddleware_InactiveUser(t *testing.T) {
	sessions := &fakeSessionStore{sessions: map[string]*storage.Session{
		"tok-1": {Token: "tok-1", UserID: 7},
	}}
	users := &fakeUserStore{users: map[uint]*storage.User{
		7: {ID: 7, Username: "jdoe", IsActive: false},
	}}
	router := authTestRouter(sessions, users)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "User inactive or deleted.")
}

func TestAuthMiddleware_SessionStoreError(t *testing.T) {
	sessions := &fakeSessionStore{
		sessions: map[string]*storage.Session{},
		err:      errors.New("redis down"),
	}
	router := authTestRouter(sessions, &fakeUserStore{users: map[uint]*storage.User{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware_StripsAuthorizationHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &fakeSessionStore{sessions: map[string]*storage.Session{
		"tok-1": {Token: "tok-1", UserID: 7},
	}}
	users := &fakeUserStore{users: map[uint]*storage.User{
		7: {ID: 7, Username: "jdoe", IsActive: true},
	}}
	auth := NewAuth(sessions, users, system.NewTestLogger())

	router := gin.New()
	router.GET("/protected", auth.Middleware(), func(c *gin.Context) {
		assert.Empty(t, c.GetHeader(AuthHeaderKey))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthHeaderKey, "Bearer tok-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCurrentUser_Unset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, CurrentUser(c))
}
