package services

import "greened-backend/models"

// Session carries the resolved caller into every service call. A nil
// Session or a nil User means the request is anonymous.
type Session struct {
	User  *models.User
	Roles []models.Role
}

func (s *Session) requireUser() (*models.User, error) {
	if s == nil || s.User == nil {
		return nil, ErrNotAuthenticated
	}
	return s.User, nil
}

// HasRole checks gateway-asserted roles first and falls back to the stored role.
func (s *Session) HasRole(roles ...models.Role) bool {
	if s == nil || s.User == nil {
		return false
	}
	held := s.Roles
	if len(held) == 0 {
		held = []models.Role{s.User.Role}
	}
	for _, h := range held {
		for _, r := range roles {
			if h == r {
				return true
			}
		}
	}
	return false
}

func (s *Session) IsAdmin() bool {
	return s.HasRole(models.RoleAdmin)
}

// UserID returns the caller's id or nil for anonymous sessions.
func (s *Session) UserID() *string {
	if s == nil || s.User == nil {
		return nil
	}
	id := s.User.ID
	return &id
}
