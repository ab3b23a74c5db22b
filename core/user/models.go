package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/infort/rh/core"
)

type Role string

// Roles
const (
	RoleEmployee Role = "FUNCIONARIO"
	RoleHR       Role = "RH"
)

func (r Role) IsValid() bool {
	return r == RoleEmployee || r == RoleHR
}

type Status string

const (
	StatusActive   Status = "ATIVO"
	StatusInactive Status = "INATIVO"
)

func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusInactive
}

// PasswordMinLen is the shortest password accepted at setup.
const PasswordMinLen = 6

type User struct {
	ID                 int         `json:"id" db:"id"`
	Name               string      `json:"name" db:"name"`
	Email              string      `json:"email" db:"email"`
	PasswordHash       null.String `json:"-" db:"password"`
	Role               Role        `json:"role" db:"role"`
	NeedsPasswordSetup bool        `json:"needsPasswordSetup" db:"needs_password_setup"`
	Status             Status      `json:"status" db:"status"`
	CreatedAt          time.Time   `json:"createdAt" db:"created_at"` // UTC
	UpdatedAt          time.Time   `json:"-" db:"updated_at"`         // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = null.StringFrom(string(hash))
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	if !u.PasswordHash.Valid {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash.String), []byte(pwd))
}

// ClearPassword drops the password and puts the account back into the setup state.
func (u *User) ClearPassword() {
	u.PasswordHash = null.String{}
	u.NeedsPasswordSetup = true
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

func (u *User) IsHR() bool {
	return u.Role == RoleHR
}

// Profile is the public view of a User returned alongside session tokens.
type Profile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u User) Profile() Profile {
	return Profile{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Session is the result of a successful authentication.
type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

// LoginResult holds either a Session or the password setup indicator.
type LoginResult struct {
	Session            *Session
	NeedsPasswordSetup bool
	UserID             int
	Email              string
}

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Clean() {
	c.Email = core.CleanString(c.Email, true /* lower */)
}

type SetupPassword struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (sp *SetupPassword) Clean() {
	sp.Email = core.CleanString(sp.Email, true /* lower */)
}

// NewEmployee contains information needed to register a new employee.
type NewEmployee struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func (ne *NewEmployee) Clean() {
	ne.Name = core.CleanString(ne.Name)
	ne.Email = core.CleanString(ne.Email, true /* lower */)
}

type UpdateStatus struct {
	Status Status `json:"status" validate:"required,userstatus"`
}

type QueryFilter struct {
	Search string `json:"search" query:"search"`
	Status Status `json:"status" query:"status" validate:"omitempty,userstatus"`
	Role   Role   `json:"role" query:"role" validate:"omitempty,userrole"`
	IDs    []int  `json:"-" query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type GetFilter struct {
	ID    int
	Email string
}
