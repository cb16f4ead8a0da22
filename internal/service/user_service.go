package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pos-service/internal/models"
	"pos-service/internal/notify"
	"pos-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserFilter narrows List; empty fields match everything
type UserFilter struct {
	Search string
	Role   models.Role
}

// RoleCounts summarizes the user directory
type RoleCounts struct {
	Total    int `json:"total"`
	Admin    int `json:"admin"`
	Cashier  int `json:"cashier"`
	Salesman int `json:"salesman"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// UserService manages the user directory
type UserService struct {
	mu     sync.RWMutex
	users  []models.User
	now    func() time.Time
	logger *zap.Logger
}

// NewUserService creates a directory seeded with users
func NewUserService(seed []models.User) *UserService {
	users := make([]models.User, len(seed))
	copy(users, seed)
	return &UserService{
		users:  users,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// FindActiveByEmail returns the active user with email
func (s *UserService) FindActiveByEmail(email string) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if u.IsActive && strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return models.User{}, false
}

// Get returns a user by id
func (s *UserService) Get(id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.users[i], nil
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
}

// Name returns the display name of a user, or a placeholder when unknown
func (s *UserService) Name(id string) string {
	u, err := s.Get(id)
	if err != nil {
		return "Unknown Cashier"
	}
	return u.Name
}

// List returns users matching filter in directory order
func (s *UserService) List(c Caller, f UserFilter) ([]models.User, error) {
	if err := c.require("list users", models.RoleAdmin); err != nil {
		return nil, err
	}
	m := newMatcher(f.Search)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if !m.matches(u.Name, u.Email, u.ID) {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Count returns the number of users in the directory
func (s *UserService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Counts returns totals per role and activity
func (s *UserService) Counts(c Caller) (RoleCounts, error) {
	if err := c.require("count users", models.RoleAdmin); err != nil {
		return RoleCounts{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rc RoleCounts
	for _, u := range s.users {
		rc.Total++
		switch u.Role {
		case models.RoleAdmin:
			rc.Admin++
		case models.RoleCashier:
			rc.Cashier++
		case models.RoleSalesman:
			rc.Salesman++
		}
		if u.IsActive {
			rc.Active++
		} else {
			rc.Inactive++
		}
	}
	return rc, nil
}

// Add creates a user. Emails are unique regardless of case.
func (s *UserService) Add(ctx context.Context, c Caller, u models.User) (models.User, error) {
	_, span := util.StartSpan(ctx, "UserService.Add")
	defer span.End()

	if err := c.require("add user", models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if err := validateUser(u); err != nil {
		return models.User{}, c.fail(err)
	}

	s.mu.Lock()
	if s.emailTaken(u.Email, "") {
		s.mu.Unlock()
		c.notify(notify.Failure("Error", "Email already exists"))
		return models.User{}, fmt.Errorf("email %s: %w", u.Email, models.ErrDuplicateKey)
	}
	u.ID = "user-" + uuid.New().String()
	u.CreatedAt = s.now()
	s.users = append(s.users, u)
	s.mu.Unlock()

	s.logger.Info("User added", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	c.notify(notify.Success("Success", fmt.Sprintf("%s has been added as %s", u.Name, u.Role)))
	return u, nil
}

// Update replaces the user with the same id. CreatedAt is preserved.
func (s *UserService) Update(ctx context.Context, c Caller, u models.User) (models.User, error) {
	_, span := util.StartSpan(ctx, "UserService.Update")
	defer span.End()

	if err := c.require("update user", models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if err := validateUser(u); err != nil {
		return models.User{}, c.fail(err)
	}

	s.mu.Lock()
	i := s.index(u.ID)
	if i < 0 {
		s.mu.Unlock()
		return models.User{}, c.fail(fmt.Errorf("user %s: %w", u.ID, models.ErrNotFound))
	}
	if s.emailTaken(u.Email, u.ID) {
		s.mu.Unlock()
		c.notify(notify.Failure("Error", "Email already exists"))
		return models.User{}, fmt.Errorf("email %s: %w", u.Email, models.ErrDuplicateKey)
	}
	u.CreatedAt = s.users[i].CreatedAt
	s.users[i] = u
	s.mu.Unlock()

	c.notify(notify.Success("Success", fmt.Sprintf("%s has been updated", u.Name)))
	return u, nil
}

// Delete removes a user by id
func (s *UserService) Delete(ctx context.Context, c Caller, id string) error {
	_, span := util.StartSpan(ctx, "UserService.Delete")
	defer span.End()

	if err := c.require("delete user", models.RoleAdmin); err != nil {
		return err
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return c.fail(fmt.Errorf("user %s: %w", id, models.ErrNotFound))
	}
	removed := s.users[i]
	s.users = append(s.users[:i:i], s.users[i+1:]...)
	s.mu.Unlock()

	c.notify(notify.Success("Success", fmt.Sprintf("%s has been removed", removed.Name)))
	return nil
}

// ToggleActive flips the active flag of a user
func (s *UserService) ToggleActive(ctx context.Context, c Caller, id string) (models.User, error) {
	_, span := util.StartSpan(ctx, "UserService.ToggleActive")
	defer span.End()

	if err := c.require("toggle user", models.RoleAdmin); err != nil {
		return models.User{}, err
	}
	s.mu.Lock()
	i := s.index(id)
	if i < 0 {
		s.mu.Unlock()
		return models.User{}, c.fail(fmt.Errorf("user %s: %w", id, models.ErrNotFound))
	}
	s.users[i].IsActive = !s.users[i].IsActive
	u := s.users[i]
	s.mu.Unlock()

	state := "inactive"
	if u.IsActive {
		state = "active"
	}
	c.notify(notify.Info("Status Updated", fmt.Sprintf("%s is now %s", u.Name, state)))
	return u, nil
}

func (s *UserService) index(id string) int {
	for i := range s.users {
		if s.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *UserService) emailTaken(email, exceptID string) bool {
	for _, u := range s.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func validateUser(u models.User) error {
	switch {
	case u.Name == "":
		return models.InvalidField("name", "is required")
	case u.Email == "":
		return models.InvalidField("email", "is required")
	case !strings.Contains(u.Email, "@"):
		return models.InvalidField("email", "is not an email address")
	case !u.Role.Valid():
		return models.InvalidField("role", "must be admin, cashier or salesman")
	}
	return nil
}
