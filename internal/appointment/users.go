package appointment

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
)

// bcrypt accepts at most 72 bytes.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

var (
	ErrInvalidUser       = errors.New("user needs a name, a username, a valid email and a known user_type")
	ErrInvalidRoleFilter = errors.New("unknown user_type filter")
	ErrInvalidPassword   = errors.New("password must be between 6 and 72 characters")
	ErrWrongPassword     = errors.New("current password is incorrect")
	ErrSelfLockout       = errors.New("admins cannot delete or demote their own account")
)

func (s *Service) ListUsers(ctx context.Context, f UserFilter) ([]User, error) {
	q := UserQuery{Search: strings.TrimSpace(f.Search)}
	if f.Role != "" {
		role, ok := lifecycle.ParseRole(f.Role)
		if !ok {
			return nil, ErrInvalidRoleFilter
		}
		q.Role = role
	}
	items, err := s.repo.ListUsers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return items, nil
}

// Me returns the signed-in user's own account.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func validateUser(in UserInput) (User, error) {
	u := User{
		Name:     strings.TrimSpace(in.Name),
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
	}
	role, ok := lifecycle.ParseRole(strings.TrimSpace(in.Role))
	if !ok || u.Name == "" || u.Username == "" {
		return User{}, ErrInvalidUser
	}
	addr, err := mail.ParseAddress(u.Email)
	if err != nil || addr.Address != u.Email {
		return User{}, ErrInvalidUser
	}
	u.Role = role
	return u, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	u, err := validateUser(in)
	if err != nil {
		return nil, err
	}
	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateUser(ctx, u, hash)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", created.ID, "user_type", string(created.Role))
	return created, nil
}

// UpdateUser rewrites an account. The password only changes when in.Password
// is set.
func (s *Service) UpdateUser(ctx context.Context, actor Actor, id uuid.UUID, in UserInput) (*User, error) {
	u, err := validateUser(in)
	if err != nil {
		return nil, err
	}
	if actor.UserID == id && u.Role != lifecycle.RoleAdmin {
		return nil, ErrSelfLockout
	}
	u.ID = id

	var hash string
	if in.Password != "" {
		if hash, err = s.hashPassword(in.Password); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateUser(ctx, u, hash)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor Actor, id uuid.UUID) error {
	if actor.UserID == id {
		return ErrSelfLockout
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrUserInUse) {
			return err
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", "user_id", id, "by", actor.UserID)
	return nil
}

// ChangePassword replaces the caller's password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	stored, err := s.repo.GetPasswordHash(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("load password hash: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(current)) != nil {
		return ErrWrongPassword
	}

	hash, err := s.hashPassword(next)
	if err != nil {
		return err
	}
	if err := s.repo.SetPasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("store password hash: %w", err)
	}
	return nil
}

// Stats feeds the admin dashboard counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.repo.CountStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return st, nil
}
