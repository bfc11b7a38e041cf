package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/crypto"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

type seedAccount struct {
	username string
	email    string
	fullName string
	password string
	role     model.Role
}

var defaultAccounts = []seedAccount{
	{username: "admin", email: "admin@siba.com", fullName: "Admin User", password: "Admin@123", role: model.RoleAdmin},
	{username: "staff", email: "staff@siba.com", fullName: "Staff User", password: "Staff@123", role: model.RoleStaff},
}

// EnsureDefaultAccounts creates the bootstrap admin and staff accounts when
// they are absent. Existing rows are left untouched, so running it on every
// startup is safe.
func EnsureDefaultAccounts(ctx context.Context, users UserStore) error {
	for _, account := range defaultAccounts {
		_, err := users.GetUserByUsername(ctx, account.username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("looking up %s: %w", account.username, err)
		}

		hash, err := crypto.HashPassword(account.password)
		if err != nil {
			return fmt.Errorf("hashing %s password: %w", account.username, err)
		}
		user := model.User{
			Username:     account.username,
			Email:        account.email,
			FullName:     account.fullName,
			PasswordHash: hash,
			Role:         account.role,
		}
		if err := users.CreateUser(ctx, &user); err != nil {
			// A concurrent instance may have won the race; that still
			// satisfies the postcondition.
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("creating %s: %w", account.username, err)
		}
	}
	return nil
}
