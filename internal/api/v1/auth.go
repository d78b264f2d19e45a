package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/homewatch/homewatch-go/internal/datastore"
	"github.com/homewatch/homewatch-go/internal/errors"
	"github.com/homewatch/homewatch-go/internal/security"
)

// initAuthRoutes registers registration and token endpoints.
func (c *Controller) initAuthRoutes() {
	auth := c.Group.Group("/auth")
	auth.POST("/register", c.Register)
	auth.POST("/login", c.Login)
	auth.POST("/refresh", c.RefreshToken)
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a fresh token pair.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func userResponse(user *datastore.User) UserResponse {
	return UserResponse{ID: user.ID, Username: user.Username, Email: user.Email}
}

// Register creates a new user account.
func (c *Controller) Register(ctx echo.Context) error {
	var req RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return c.HandleError(ctx, nil, "Username, email and password are required", http.StatusBadRequest)
	}
	if len(req.Password) < 8 {
		return c.HandleError(ctx, nil, "Password must be at least 8 characters", http.StatusBadRequest)
	}

	if _, err := c.DS.GetUserByUsername(req.Username); err == nil {
		return c.HandleError(ctx, nil, "Username already taken", http.StatusConflict)
	}
	if _, err := c.DS.GetUserByEmail(req.Email); err == nil {
		return c.HandleError(ctx, nil, "Email already registered", http.StatusConflict)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to create account", http.StatusInternalServerError)
	}

	user := datastore.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := c.DS.CreateUser(&user); err != nil {
		return c.HandleError(ctx, err, "Failed to create account", http.StatusInternalServerError)
	}

	c.apiLogger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return ctx.JSON(http.StatusCreated, userResponse(&user))
}

// Login verifies credentials and issues a token pair.
func (c *Controller) Login(ctx echo.Context) error {
	var req LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	user, err := c.DS.GetUserByUsername(strings.TrimSpace(req.Username))
	if err != nil || !security.CheckPassword(user.PasswordHash, req.Password) {
		// Same response for unknown user and bad password.
		return c.HandleError(ctx, nil, "Invalid username or password", http.StatusUnauthorized)
	}

	return c.issueTokens(ctx, &user)
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (c *Controller) RefreshToken(ctx echo.Context) error {
	var req RefreshRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, err, "Invalid request body", http.StatusBadRequest)
	}

	claims, err := c.Tokens.Verify(req.RefreshToken, security.TokenRefresh)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid or expired refresh token", http.StatusUnauthorized)
	}

	user, err := c.DS.GetUser(claims.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return c.HandleError(ctx, err, "Account no longer exists", http.StatusUnauthorized)
		}
		return c.HandleError(ctx, err, "Failed to refresh token", http.StatusInternalServerError)
	}

	return c.issueTokens(ctx, &user)
}

func (c *Controller) issueTokens(ctx echo.Context, user *datastore.User) error {
	access, err := c.Tokens.IssueAccessToken(user.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to issue token", http.StatusInternalServerError)
	}
	refresh, err := c.Tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to issue token", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         userResponse(user),
	})
}
