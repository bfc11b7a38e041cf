package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/auth"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/config"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/crypto"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

type memUserStore struct {
	users  map[string]model.User
	nextID int64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]model.User), nextID: 1}
}

func (m *memUserStore) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	user, ok := m.users[username]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range m.users {
		if user.Email == email && email != "" {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUserStore) CreateUser(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.Username]; ok {
		return repository.ErrDuplicate
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.nextID++
	m.users[user.Username] = *user
	return nil
}

func (m *memUserStore) mustAdd(t *testing.T, username, password string, role model.Role) {
	t.Helper()
	hash, err := crypto.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, m.CreateUser(context.Background(), &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
	}))
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:   "service-test-secret",
		JWTIssuer:   "SchoolApi",
		JWTAudience: "SchoolClient",
		TokenTTL:    3 * time.Hour,
	}
}

func TestLoginSuccess(t *testing.T) {
	store := newMemUserStore()
	store.mustAdd(t, "admin", "Admin@123", model.RoleAdmin)
	authn := NewAuthenticator(store, testConfig())

	result, err := authn.Login(context.Background(), "admin", "Admin@123")
	require.NoError(t, err)
	assert.Equal(t, "admin", result.Username)
	assert.Equal(t, model.RoleAdmin, result.Role)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	// The embedded role claim matches the stored role.
	claims, err := auth.ParseToken([]byte("service-test-secret"), "SchoolApi", "SchoolClient", result.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, "Admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	store := newMemUserStore()
	store.mustAdd(t, "admin", "Admin@123", model.RoleAdmin)
	authn := NewAuthenticator(store, testConfig())

	_, unknownErr := authn.Login(context.Background(), "nobody", "Admin@123")
	_, wrongErr := authn.Login(context.Background(), "admin", "Wrong@123")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestLoginUnsetRoleDefaultsToStaff(t *testing.T) {
	store := newMemUserStore()
	hash, err := crypto.HashPassword("Secret123")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), &model.User{
		Username:     "legacy",
		PasswordHash: hash,
	}))
	authn := NewAuthenticator(store, testConfig())

	result, err := authn.Login(context.Background(), "legacy", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, result.Role)
}

func TestRegisterThenLoginRoundTrip(t *testing.T) {
	store := newMemUserStore()
	authn := NewAuthenticator(store, testConfig())

	in := RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "Secret123",
	}
	registered, err := authn.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", registered.Username)
	assert.Equal(t, model.RoleStaff, registered.Role, "omitted role defaults to Staff")
	assert.NotEmpty(t, registered.Token)

	loggedIn, err := authn.Login(context.Background(), "jdoe", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.Username, loggedIn.Username)
	assert.Equal(t, registered.Role, loggedIn.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := newMemUserStore()
	store.mustAdd(t, "admin", "Admin@123", model.RoleAdmin)
	authn := NewAuthenticator(store, testConfig())

	_, err := authn.Register(context.Background(), RegisterInput{
		Username: "admin",
		Email:    "other@example.com",
		FullName: "Other Admin",
		Password: "Secret123",
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	store := newMemUserStore()
	authn := NewAuthenticator(store, testConfig())

	_, err := authn.Register(context.Background(), RegisterInput{
		Username: "jdoe",
		Email:    "jdoe@example.com",
		FullName: "Jane Doe",
		Password: "short",
	})

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Len(t, regErr.Reasons, 3)
	assert.Contains(t, regErr.Error(), "user creation failed: ")
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	store := newMemUserStore()
	store.mustAdd(t, "admin", "Admin@123", model.RoleAdmin)
	authn := NewAuthenticator(store, testConfig())

	_, err := authn.Register(context.Background(), RegisterInput{
		Username: "admin2",
		Email:    "admin@example.com",
		FullName: "Second Admin",
		Password: "Secret123",
	})

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Contains(t, regErr.Reasons, "email is already in use")
}

func TestRegisterExplicitAdminRole(t *testing.T) {
	store := newMemUserStore()
	authn := NewAuthenticator(store, testConfig())

	result, err := authn.Register(context.Background(), RegisterInput{
		Username: "boss",
		Email:    "boss@example.com",
		FullName: "Boss User",
		Password: "Secret123",
		Role:     "Admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, result.Role)
}

func TestEnsureDefaultAccounts(t *testing.T) {
	store := newMemUserStore()
	require.NoError(t, EnsureDefaultAccounts(context.Background(), store))

	admin, err := store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)

	staff, err := store.GetUserByUsername(context.Background(), "staff")
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, staff.Role)

	// Second run leaves the existing rows untouched.
	require.NoError(t, EnsureDefaultAccounts(context.Background(), store))
	again, err := store.GetUserByUsername(context.Background(), "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.PasswordHash, again.PasswordHash)

	// Seeded credentials actually log in.
	authn := NewAuthenticator(store, testConfig())
	result, err := authn.Login(context.Background(), "admin", "Admin@123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, result.Role)
}
