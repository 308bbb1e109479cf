package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/projectpulse/pulse/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleLeader  = "leader"
	RoleMember  = "member"
)

var (
	AllRoles = []string{RoleAdmin, RoleManager, RoleLeader, RoleMember}

	// ApproverRoles may resolve extension requests, reschedule deadlines and produce reports.
	ApproverRoles = []string{RoleLeader, RoleManager}
	// SupervisorRoles may read every team member's requests.
	SupervisorRoles = []string{RoleLeader, RoleManager, RoleAdmin}
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"isActive"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u User) IsMember() bool { return u.Role == RoleMember }

// Require is the authorization gate: it fails with core.ErrPermissionDenied
// unless the user is active and holds one of roles.
func (u User) Require(roles ...string) error {
	if u.ID == "" || !u.IsActive || !u.HasAnyRole(roles...) {
		return core.ErrPermissionDenied
	}
	return nil
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Email)
}

type QueryFilter struct {
	Roles    []string
	IsActive *bool
}
