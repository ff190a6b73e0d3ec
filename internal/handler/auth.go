package handler

import (
    "database/sql"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-reservation/internal/config"
    "github.com/iliyamo/restaurant-reservation/internal/middleware"
    "github.com/iliyamo/restaurant-reservation/internal/model"
    "github.com/iliyamo/restaurant-reservation/internal/repository"
    "github.com/iliyamo/restaurant-reservation/internal/utils"
)

const minPasswordLen = 8

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

type signUpReq struct {
    FirstName string `json:"firstName"`
    LastName  string `json:"lastName"`
    Email     string `json:"email"`
    Password  string `json:"password"`
}

type signInReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refreshToken"`
}

type passwordReq struct {
    Password string `json:"password"`
}

type updatePasswordReq struct {
    CurrentPassword string `json:"currentPassword"`
    NewPassword     string `json:"newPassword"`
}

type sessionResp struct {
    AccessToken  string    `json:"accessToken"`
    RefreshToken string    `json:"refreshToken"`
    ExpiresAt    time.Time `json:"expiresAt"`
    UserID       uint64    `json:"userId"`
    Role         string    `json:"role"`
}

func checkPassword(v *validator, field, pw string) {
    if len(pw) < minPasswordLen {
        v.fail(field, fmt.Sprintf("Password must have at least %d characters", minPasswordLen))
    } else if len(pw) > 72 {
        v.fail(field, "Password must have at most 72 bytes")
    }
}

// issue signs an access token and stores a fresh refresh token.
func (h *AuthHandler) issue(c echo.Context, userID uint64, role string) error {
    ctx, cancel := reqCtx(c)
    defer cancel()
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return respondError(c, err)
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return respondError(c, err)
    }
    if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return respondError(c, err)
    }
    return c.JSON(http.StatusOK, sessionResp{
        AccessToken:  access.Token,
        RefreshToken: refresh.Raw,
        ExpiresAt:    access.Exp,
        UserID:       userID,
        Role:         role,
    })
}

// SignUp creates a user with the default role.  Sign-in is a separate call.
func (h *AuthHandler) SignUp(c echo.Context) error {
    var req signUpReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
    email := strings.ToLower(strings.TrimSpace(req.Email))
    if first == "" || len(first) > 255 {
        v.fail("firstName", "First name is required")
    }
    if last == "" || len(last) > 255 {
        v.fail("lastName", "Last name is required")
    }
    if !validEmail(email) {
        v.fail("email", "Invalid email")
    }
    checkPassword(&v, "password", req.Password)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }

    ctx, cancel := reqCtx(c)
    defer cancel()
    id, err := h.Users.Create(ctx, first, last, email, req.Password, h.Cfg.BcryptCost)
    if err != nil {
        return respondError(c, err)
    }
    return created(c, fmt.Sprintf("%s/users/%d", APIPrefix, id))
}

// SignIn verifies credentials and returns a token pair.
func (h *AuthHandler) SignIn(c echo.Context) error {
    var req signInReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    if strings.TrimSpace(req.Email) == "" || req.Password == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return respondError(c, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(c, u.ID, u.Role)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refreshToken required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := reqCtx(c)
    defer cancel()
    userID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    // revoking is the commit point: of two concurrent refreshes only one wins
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        if errors.Is(err, repository.ErrInvalidRefresh) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, err)
    }
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
        }
        return respondError(c, err)
    }
    return h.issue(c, u.ID, u.Role)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    _ = c.Bind(&req)
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := reqCtx(c)
    defer cancel()
    if raw != "" {
        if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
            if errors.Is(err, repository.ErrInvalidRefresh) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
            }
            return respondError(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }

    header := c.Request().Header.Get(echo.HeaderAuthorization)
    if !strings.HasPrefix(header, "Bearer ") {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "provide Authorization header or refreshToken"})
    }
    p, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(header, "Bearer "))
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    }
    if err := h.Tokens.RevokeAllForUser(ctx, p.UserID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ValidAccessToken answers 200 for any bearer that passed JWTAuth.
func (h *AuthHandler) ValidAccessToken(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
    }
    role, _ := c.Get(middleware.CtxRole).(string)
    return c.JSON(http.StatusOK, echo.Map{"userId": uid, "role": role})
}

// currentUser loads the caller and checks the supplied password.
func (h *AuthHandler) currentUser(c echo.Context, password string) (*model.User, error) {
    uid, err := getUserID(c)
    if err != nil {
        return nil, errUnauthorized
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return nil, errUnauthorized
        }
        return nil, err
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return nil, errUnauthorized
    }
    return u, nil
}

var errUnauthorized = errors.New("invalid credentials")

func (h *AuthHandler) authFailure(c echo.Context, err error) error {
    if errors.Is(err, errUnauthorized) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return respondError(c, err)
}

// DeleteAccount removes the caller after re-checking the password.
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
    var req passwordReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    u, err := h.currentUser(c, req.Password)
    if err != nil {
        return h.authFailure(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.Delete(ctx, u.ID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// UpdatePassword replaces the caller's password and ends every session.
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
    var req updatePasswordReq
    if err := c.Bind(&req); err != nil {
        return badBody(c)
    }
    var v validator
    checkPassword(&v, "newPassword", req.NewPassword)
    if err := v.err(); err != nil {
        return respondError(c, err)
    }
    u, err := h.currentUser(c, req.CurrentPassword)
    if err != nil {
        return h.authFailure(c, err)
    }
    ctx, cancel := reqCtx(c)
    defer cancel()
    if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
        return respondError(c, err)
    }
    if err := h.Tokens.RevokeAllForUser(ctx, u.ID); err != nil {
        return respondError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
