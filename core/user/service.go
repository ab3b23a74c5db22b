package user

import (
	"context"
	htmltemplate "html/template"
	"net/mail"
	"text/template"
	"time"

	"github.com/pkg/errors"

	"github.com/infort/rh/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = core.NewAuthError("invalid credentials")
	ErrAccountInactive    = core.NewAuthError("account is inactive or no longer exists")
	ErrInvalidToken       = core.NewPermissionError("invalid or expired token")
	errPasswordTooShort   = errors.New("password must be at least 6 characters long")
	errSetupNotAllowed    = errors.New("user not found or password already set")
	errInvalidStatus      = errors.New("status must be ATIVO or INATIVO")
	errOwnStatus          = errors.New("you cannot change the status of your own account")
)

var inviteTmpl = template.Must(template.New("invite").Parse(
	`Olá {{.Name}},

Sua conta no {{.AppName}} está pronta. Defina sua senha em:
{{.URL}}

E-mail de acesso: {{.Email}}
`))

var inviteHTMLTmpl = htmltemplate.Must(htmltemplate.New("invite.html").Parse(
	`<p>Olá {{.Name}},</p>
<p>Sua conta no {{.AppName}} está pronta.</p>
<p><a href="{{.URL}}">Definir minha senha</a></p>
<p>E-mail de acesso: {{.Email}}</p>
`))

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		tokens  tokenIssuer
		conf    *core.Config
	}
)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		tokens: tokenIssuer{
			secret:  conf.JWT.Secret,
			issuer:  conf.AppName,
			expires: conf.JWT.ExpirationDelta,
		},
	}
}

// Login authenticates a user by email and password.
// Unknown emails, inactive accounts and wrong passwords all fail with ErrInvalidCredentials.
func (svc *Service) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	creds.Clean()
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: creds.Email})
	if err != nil {
		if err == ErrNotFound {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.IsActive() {
		return LoginResult{}, ErrInvalidCredentials
	}
	if usr.NeedsPasswordSetup {
		return LoginResult{NeedsPasswordSetup: true, UserID: usr.ID, Email: usr.Email}, nil
	}
	if err = usr.CheckPassword(creds.Password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	sess, err := svc.newSession(usr)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: &sess}, nil
}

// SetupPassword sets the first password of an account provisioned without one.
func (svc *Service) SetupPassword(ctx context.Context, sp SetupPassword) (Session, error) {
	sp.Clean()
	if len(sp.NewPassword) < PasswordMinLen {
		return Session{}, core.NewValidationError(errPasswordTooShort, core.FieldError{
			Field: "newPassword",
			Error: errPasswordTooShort.Error(),
		})
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: sp.Email})
	if err != nil {
		if err == ErrNotFound {
			return Session{}, core.NewValidationError(errSetupNotAllowed)
		}
		return Session{}, errors.Wrap(err, "finding user by email")
	}
	if !usr.NeedsPasswordSetup || !usr.IsActive() {
		return Session{}, core.NewValidationError(errSetupNotAllowed)
	}

	if err = usr.SetPassword(sp.NewPassword); err != nil {
		return Session{}, errors.Wrap(err, "hashing password")
	}
	usr.NeedsPasswordSetup = false
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return Session{}, errors.Wrap(err, "updating user")
	}
	return svc.newSession(usr)
}

// VerifyToken validates a session token and returns its (still active) owner.
func (svc *Service) VerifyToken(ctx context.Context, token string) (User, error) {
	claims, err := svc.tokens.parse(token)
	if err != nil {
		return User{}, ErrInvalidToken
	}
	id, err := claims.UserID()
	if err != nil {
		return User{}, ErrInvalidToken
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		if err == ErrNotFound {
			return User{}, ErrAccountInactive
		}
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive() {
		return User{}, ErrAccountInactive
	}
	return usr, nil
}

// GenerateToken returns a signed session token for usr.
func (svc *Service) GenerateToken(usr User) (string, error) {
	return svc.tokens.generate(usr)
}

func (svc *Service) newSession(usr User) (Session, error) {
	token, err := svc.tokens.generate(usr)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: usr.Profile()}, nil
}

func (svc *Service) checkEmailErr(err error) error {
	if errors.Cause(err) == ErrEmailExists {
		return core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	}
	return err
}

// RegisterEmployee creates an active employee account that needs a password setup,
// and emails the invitation.
func (svc *Service) RegisterEmployee(ctx context.Context, ne NewEmployee) (User, error) {
	ne.Clean()
	now := time.Now().UTC()
	usr := User{
		Name:               ne.Name,
		Email:              ne.Email,
		Role:               RoleEmployee,
		Status:             StatusActive,
		NeedsPasswordSetup: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, svc.checkEmailErr(err)
	}
	svc.sendInvite(usr)
	return usr, nil
}

// SaveHR creates an active HR account with a usable password, or promotes the existing
// account with the same email.
func (svc *Service) SaveHR(ctx context.Context, name, email, password string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	if len(password) < PasswordMinLen {
		return User{}, core.NewValidationError(errPasswordTooShort, core.FieldError{Field: "password", Error: errPasswordTooShort.Error()})
	}

	now := time.Now().UTC()
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	switch {
	case err == ErrNotFound:
		usr = User{Email: email, CreatedAt: now}
	case err != nil:
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if usr.Name == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"})
	}
	usr.Role = RoleHR
	usr.Status = StatusActive
	usr.NeedsPasswordSetup = false
	usr.UpdatedAt = now
	if err = usr.SetPassword(password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	if usr.ID == 0 {
		usr, err = svc.repo.CreateUser(ctx, usr)
		return usr, svc.checkEmailErr(err)
	}
	return svc.repo.UpdateUser(ctx, usr)
}

// ChangePassword sets a new password for the account with the given email.
func (svc *Service) ChangePassword(ctx context.Context, email, password string) (User, error) {
	if len(password) < PasswordMinLen {
		return User{}, core.NewValidationError(errPasswordTooShort, core.FieldError{Field: "password", Error: errPasswordTooShort.Error()})
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return User{}, err
	}
	if err = usr.SetPassword(password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.NeedsPasswordSetup = false
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// SetStatus activates or deactivates an account. Callers cannot change their own status.
func (svc *Service) SetStatus(ctx context.Context, actor User, id int, status Status) (User, error) {
	if !status.IsValid() {
		return User{}, core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}
	if actor.ID == id {
		return User{}, core.NewValidationError(errOwnStatus)
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.Status = status
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// ResetPassword clears the password of an account, which must then go through the setup again.
func (svc *Service) ResetPassword(ctx context.Context, id int) (User, error) {
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	usr.ClearPassword()
	usr.UpdatedAt = time.Now().UTC()
	if usr, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return User{}, err
	}
	svc.sendInvite(usr)
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

// HRUserIDs returns the ids of every HR account.
func (svc *Service) HRUserIDs(ctx context.Context, exec ...core.DBExecutor) ([]int, error) {
	users, err := svc.repo.QueryUsers(ctx, QueryFilter{Role: RoleHR}, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying HR users")
	}
	ids := make([]int, len(users))
	for i, usr := range users {
		ids[i] = usr.ID
	}
	return ids, nil
}

// MissingIDs returns the ids that do not belong to any user.
func (svc *Service) MissingIDs(ctx context.Context, ids []int, exec ...core.DBExecutor) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := svc.repo.QueryUsers(ctx, QueryFilter{IDs: ids}, exec...)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by ID")
	}
	found := make(map[int]bool, len(users))
	for _, usr := range users {
		found[usr.ID] = true
	}
	var missing []int
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (svc *Service) sendInvite(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Defina sua senha - " + svc.conf.AppName,
		Category:     "invite",
		Template:     inviteTmpl,
		HTMLTemplate: inviteHTMLTmpl,
		TemplateData: map[string]string{
			"Name":    usr.Name,
			"Email":   usr.Email,
			"AppName": svc.conf.AppName,
			"URL":     svc.conf.FrontendBaseURL + "/setup-password",
		},
	})
}
