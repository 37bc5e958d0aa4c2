package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/auth"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/services"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	users    *services.UserService
	activity *services.ActivityService
	jwt      *auth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, activity *services.ActivityService, jwt *auth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, activity: activity, jwt: jwt}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register creates a new account. Self-registration never grants the admin
// role; admin accounts are seeded or promoted out of band.
func (h *AuthHandler) Register(c *gin.Context) {
	var input services.CreateUserInput
	if !bindAndValidate(c, &input) {
		return
	}
	if input.Role == models.RoleAdmin {
		input.Role = models.RoleUser
	}

	user, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), services.ActivityEntry{
		UserID:   user.ID,
		Username: user.Username,
		Action:   services.ActionUserRegistered,
		Resource: "user:" + user.ID,
	})

	response.Success(c, http.StatusCreated, user)
}

// Login authenticates credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if !bindAndValidate(c, &input) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.activity.Record(c.Request.Context(), services.ActivityEntry{
		UserID:   user.ID,
		Username: user.Username,
		Action:   services.ActionUserLogin,
		Resource: "user:" + user.ID,
	})

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
