package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"challenge-portal/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users   service.UserService
	tokens  service.TokenIssuer
	logger  *logrus.Logger
	metrics *Metrics
}

func NewHandler(users service.UserService, tokens service.TokenIssuer, logger *logrus.Logger, metrics *Metrics) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:   users,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestID(), requestLogger(h.logger), corsMiddleware())
	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.GET("/challenges", h.listChallenges)

		users := api.Group("/users")
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.POST("/refresh", h.refresh)
		users.POST("/reset-password", h.resetPassword)
		users.GET("", h.getUser)

		authed := users.Group("", requireSession(h.tokens))
		authed.PUT("/profile", h.editProfile)
		authed.POST("/profile-image", h.uploadProfileImage)
		authed.POST("/challenges/completed", h.markCompleted)
	}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type resetPasswordRequest struct {
	Username    string `json:"username" binding:"required"`
	DateOfBirth string `json:"dateOfBirth" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type editProfileRequest struct {
	ID          int64  `json:"id" binding:"required"`
	Username    string `json:"username" binding:"required"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
}

type uploadImageRequest struct {
	ID       int64  `json:"id" binding:"required"`
	ImageB64 string `json:"imageB64"`
}

type markCompletedRequest struct {
	UserID      int64 `json:"userId" binding:"required"`
	ChallengeID int64 `json:"challengeId" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	id, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		h.fail(c, err, messages{failed: "Register failed."})
		return
	}

	respond(c, http.StatusOK, "User created successfully.", gin.H{"id": id})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err, messages{failed: "Login failed.", unauthorized: "Invalid username or password."})
		return
	}

	respond(c, http.StatusOK, "Authentication successful.", TokenResponse{
		Token:        pair.SessionToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.fail(c, err, messages{failed: "Refresh failed.", unauthorized: "Invalid refresh token."})
		return
	}

	respond(c, http.StatusOK, "Token refreshed.", TokenResponse{
		Token:        pair.SessionToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	err := h.users.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Username:    req.Username,
		DateOfBirth: req.DateOfBirth,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		h.fail(c, err, messages{
			failed:       "Reset password failed.",
			unauthorized: "Username and date of birth does not match.",
		})
		return
	}

	respond(c, http.StatusOK, "Reset password successful.", nil)
}

func (h *Handler) editProfile(c *gin.Context) {
	var req editProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	view, err := h.users.EditProfile(c.Request.Context(), service.EditProfileInput{
		ID:          req.ID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		h.fail(c, err, messages{failed: "Update user failed."})
		return
	}

	respond(c, http.StatusOK, "Edit profile successful.", userToResponse(view))
}

func (h *Handler) uploadProfileImage(c *gin.Context) {
	var req uploadImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	if err := h.users.UploadProfileImage(c.Request.Context(), req.ID, req.ImageB64); err != nil {
		h.fail(c, err, messages{failed: "Upload profile image failed."})
		return
	}

	respond(c, http.StatusOK, "Upload profile image successful.", nil)
}

func (h *Handler) getUser(c *gin.Context) {
	idStr := c.Query("id")
	if idStr == "" {
		respond(c, http.StatusBadRequest, "User ID required.", nil)
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		respond(c, http.StatusBadRequest, "Invalid user ID.", nil)
		return
	}

	view, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, messages{failed: "Get user failed."})
		return
	}

	respond(c, http.StatusOK, "User found.", userToResponse(view))
}

func (h *Handler) markCompleted(c *gin.Context) {
	var req markCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}

	if err := h.users.MarkChallengeCompleted(c.Request.Context(), req.UserID, req.ChallengeID); err != nil {
		h.fail(c, err, messages{failed: "Mark challenge completed for user failed."})
		return
	}

	respond(c, http.StatusOK, "Mark challenge completed for user successful.", nil)
}

func (h *Handler) listChallenges(c *gin.Context) {
	challenges, err := h.users.ListChallenges(c.Request.Context())
	if err != nil {
		h.fail(c, err, messages{failed: "List challenges failed."})
		return
	}

	resp := make([]ChallengeResponse, len(challenges))
	for i := range challenges {
		resp[i] = challengeToResponse(challenges[i])
	}
	respond(c, http.StatusOK, "Challenges found.", resp)
}
