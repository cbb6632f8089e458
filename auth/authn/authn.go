package authn

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/tenant-auth/auth/auth"
)

// User is an entry of a UserStore.
type User struct {
	Enabled      bool
	ID           string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	TenantID     string
	Roles        []string
}

// UserStore verifies credentials against a static list of users.
type UserStore struct {
	users      map[string]User
	usersByID  map[string]User
	roleClaims map[string][]auth.Claim
}

// NewUserStore returns a new UserStore.
//
// Users without an ID are identified by their username.
// When several users share a username or an ID, only the first of them is kept.
// roleClaims lists the additional claims bound to each role.
func NewUserStore(users []User, roleClaims map[string][]auth.Claim) UserStore {
	byName := make(map[string]User, len(users))
	byID := make(map[string]User, len(users))

	for _, user := range users {
		if user.ID == "" {
			user.ID = user.Username
		}

		_, dupName := byName[user.Username]
		_, dupID := byID[user.ID]

		if dupName || dupID {
			continue
		}

		user.Roles = slices.Clone(user.Roles)

		byName[user.Username] = user
		byID[user.ID] = user
	}

	claims := maps.Clone(roleClaims)
	for role, c := range claims {
		claims[role] = slices.Clone(c)
	}

	return UserStore{
		users:      byName,
		usersByID:  byID,
		roleClaims: claims,
	}
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("dummy password"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}

	return hash
})

// CompareDummyHash runs a bcrypt comparison whose result is discarded.
// Credential stores call it when a user cannot log in,
// so that unknown users take as long to reject as wrong passwords.
func CompareDummyHash(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
}

// Verify implements auth.CredentialStore.
func (s UserStore) Verify(_ context.Context, userName string, password string) (auth.Principal, error) {
	user, ok := s.users[userName]
	if !ok || !user.Enabled {
		// timing attack paranoia
		CompareDummyHash(password)

		return auth.Principal{}, auth.ErrAuthenticationFailed
	}

	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return auth.Principal{}, auth.ErrAuthenticationFailed
	}

	return auth.Principal{
		ID:        user.ID,
		UserName:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		TenantID:  user.TenantID,
	}, nil
}

// RolesOf implements auth.CredentialStore.
func (s UserStore) RolesOf(_ context.Context, userID string) ([]string, error) {
	return slices.Clone(s.usersByID[userID].Roles), nil
}

// RoleClaims implements auth.CredentialStore.
func (s UserStore) RoleClaims(_ context.Context, role string) ([]auth.Claim, error) {
	return slices.Clone(s.roleClaims[role]), nil
}

var _ auth.CredentialStore = UserStore{}
