package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/clinic-api/internal/model"
	"github.com/iliyamo/clinic-api/internal/service"
)

// AuthService is implemented by *service.AuthService.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.User, error)
	Login(ctx context.Context, email, password string) (service.LoginResult, error)
	Me(ctx context.Context, userID string) (model.User, error)
	UpdateMe(ctx context.Context, userID string, in service.ProfileUpdate) (model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth AuthService
}

func NewAuthHandler(a AuthService) *AuthHandler { return &AuthHandler{Auth: a} }

// Register creates a patient account.  No token is returned; clients log
// in afterwards.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req, service.MsgRegisterRequired); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.Request().Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, registerResp{Message: "Utilizador criado com sucesso!", User: toSummary(u)})
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req, service.MsgLoginRequired); err != nil {
		return err
	}
	res, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResp{
		Message:   "Login bem-sucedido!",
		Token:     res.Token.Token,
		ExpiresAt: res.Token.Exp,
		User:      toSummary(res.User),
	})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	u, err := h.Auth.Me(c.Request().Context(), id.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfile(u))
}

// UpdateMe applies a partial update to the caller's profile.
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	id, err := actor(c)
	if err != nil {
		return err
	}
	var req updateMeReq
	if err := bind(c, &req, "Pedido inválido."); err != nil {
		return err
	}
	birth, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return err
	}
	u, err := h.Auth.UpdateMe(c.Request().Context(), id.UserID, service.ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		ImageURL:        req.ImageURL,
		Insurance:       req.Insurance,
		InsuranceNumber: req.InsuranceNumber,
		Phone:           req.Phone,
		Gender:          req.Gender,
		BirthDate:       birth,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfile(u))
}
