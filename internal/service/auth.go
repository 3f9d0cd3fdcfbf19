package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/repository"
	"github.com/iliyamo/clinic-api/internal/utils"
)

const (
	MsgRegisterRequired   = "Email, password e nome são obrigatórios."
	MsgLoginRequired      = "Email e password são obrigatórios."
	msgEmailInUse         = "Este email já está em uso."
	msgBadCredentials     = "Credenciais inválidas."
	msgUserNotFound       = "Utilizador não encontrado."
	msgCurrentPwdRequired = "A password atual é obrigatória para alterar o email ou a password."
	msgCurrentPwdWrong    = "A password atual está incorreta."
)

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token utils.AccessToken
	User  model.User
}

// ProfileUpdate is a partial self-service update.  Nil fields keep their
// current value.  Changing the email or setting NewPassword requires
// CurrentPassword.
type ProfileUpdate struct {
	Name            *string
	Email           *string
	ImageURL        *string
	Insurance       *string
	InsuranceNumber *string
	Phone           *string
	Gender          *string
	BirthDate       *time.Time
	CurrentPassword string
	NewPassword     string
}

// AuthService implements registration, login and the caller's own profile.
type AuthService struct {
	users      UserStore
	tokens     TokenIssuer
	bcryptCost int
}

func NewAuthService(users UserStore, tokens TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost}
}

// Register creates a PATIENT account.  Clients cannot choose their role.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := repository.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return model.User{}, Validation(MsgRegisterRequired)
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, Internal(err)
	}
	u := model.User{Name: name, Email: email, Password: hash, Role: model.RolePatient}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, Conflict(msgEmailInUse)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

// Login checks the credentials and issues an access token.  Unknown email
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = repository.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, Validation(MsgLoginRequired)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, Authentication(msgBadCredentials)
		}
		return LoginResult{}, Internal(err)
	}
	if !utils.VerifyPassword(u.Password, password) {
		return LoginResult{}, Authentication(msgBadCredentials)
	}
	tok, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, Internal(err)
	}
	return LoginResult{Token: tok, User: u}, nil
}

// Me returns the caller's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, NotFound(msgUserNotFound)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

// UpdateMe applies a partial update to the caller's profile.  When the
// email or password changes, the current password is checked first and a
// failed check rejects the whole update.
func (s *AuthService) UpdateMe(ctx context.Context, userID string, in ProfileUpdate) (model.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	emailChange := in.Email != nil && repository.NormalizeEmail(*in.Email) != "" &&
		repository.NormalizeEmail(*in.Email) != u.Email
	pwdChange := in.NewPassword != ""
	if emailChange || pwdChange {
		if in.CurrentPassword == "" {
			return model.User{}, Validation(msgCurrentPwdRequired)
		}
		if !utils.VerifyPassword(u.Password, in.CurrentPassword) {
			return model.User{}, Authentication(msgCurrentPwdWrong)
		}
	}

	if emailChange {
		u.Email = repository.NormalizeEmail(*in.Email)
	}
	if pwdChange {
		hash, err := utils.HashPassword(in.NewPassword, s.bcryptCost)
		if err != nil {
			return model.User{}, Internal(err)
		}
		u.Password = hash
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	applyProfile(&u, profileFields{
		ImageURL:        in.ImageURL,
		Insurance:       in.Insurance,
		InsuranceNumber: in.InsuranceNumber,
		Phone:           in.Phone,
		Gender:          in.Gender,
		BirthDate:       in.BirthDate,
	})

	if err := s.users.Update(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, Conflict(msgEmailInUse)
		}
		return model.User{}, Internal(err)
	}
	return u, nil
}

// profileFields are the optional columns shared by self-service and admin
// updates.  Nil keeps the current value.
type profileFields struct {
	ImageURL        *string
	Insurance       *string
	InsuranceNumber *string
	Phone           *string
	Gender          *string
	BirthDate       *time.Time
}

func applyProfile(u *model.User, p profileFields) {
	if p.ImageURL != nil {
		u.ImageURL = p.ImageURL
	}
	if p.Insurance != nil {
		u.Insurance = p.Insurance
	}
	if p.InsuranceNumber != nil {
		u.InsuranceNumber = p.InsuranceNumber
	}
	if p.Phone != nil {
		u.Phone = p.Phone
	}
	if p.Gender != nil {
		u.Gender = p.Gender
	}
	if p.BirthDate != nil {
		u.BirthDate = p.BirthDate
	}
}
