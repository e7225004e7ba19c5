package handler

import (
	"log/slog"
	"net/http"
	"time"

	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

type profileResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	const op = "handler.Register"

	log := h.log.With(slog.String("op", op))

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	res, err := h.serviceLayer.Register(c.Request.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, log, err)

		return
	}

	log.Info("user registered", slog.String("user_id", res.User.ID.String()))

	h.setRefreshCookie(c, res.Refresh.Value)
	c.JSON(http.StatusCreated, newAuthResponse(res))
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	const op = "handler.Login"

	log := h.log.With(slog.String("op", op))

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Debug("failed to read request body", slog.Any("error", err))

		newErrorResponse(c, http.StatusBadRequest, "invalid request body")

		return
	}

	res, err := h.serviceLayer.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, log, err)

		return
	}

	h.setRefreshCookie(c, res.Refresh.Value)
	c.JSON(http.StatusOK, newAuthResponse(res))
}

// POST /auth/refresh
func (h *Handler) Refresh(c *gin.Context) {
	const op = "handler.Refresh"

	log := h.log.With(slog.String("op", op))

	token, err := c.Cookie(h.opts.Cookie.Name)
	if err != nil || token == "" {
		newErrorResponse(c, http.StatusUnauthorized, "No refresh token")

		return
	}

	accessToken, err := h.serviceLayer.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}

// POST /auth/logout, DELETE /auth/refresh
func (h *Handler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.opts.Cookie.Name)

	h.serviceLayer.Logout(c.Request.Context(), token)

	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /auth/profile
func (h *Handler) GetProfile(c *gin.Context) {
	const op = "handler.GetProfile"

	log := h.log.With(slog.String("op", op))

	userID, ok := userIDFromContext(c)
	if !ok {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")

		return
	}

	user, err := h.serviceLayer.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err)

		return
	}

	c.JSON(http.StatusOK, profileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

func newAuthResponse(res service.AuthResult) authResponse {
	return authResponse{
		AccessToken: res.AccessToken,
		User: userResponse{
			ID:       res.User.ID,
			Username: res.User.Username,
			Email:    res.User.Email,
		},
	}
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		h.opts.Cookie.Name,
		token,
		int(h.opts.Cookie.MaxAge.Seconds()),
		h.opts.Cookie.Path,
		h.opts.Cookie.Domain,
		h.opts.Cookie.Secure,
		true,
	)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.Cookie.Name, "", -1, h.opts.Cookie.Path, h.opts.Cookie.Domain, h.opts.Cookie.Secure, true)
}
