package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tablehub/backend/internal/core/domain"
	"github.com/tablehub/backend/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	FirstName   string `json:"firstName"   validate:"required,max=50"`
	LastName    string `json:"lastName"    validate:"required,max=50"`
	Email       string `json:"email"       validate:"required,email"`
	Username    string `json:"username"    validate:"omitempty,max=50"`
	Password    string `json:"password"    validate:"required,min=8"`
	ProfileName string `json:"profileName" validate:"omitempty"`
	Role        string `json:"role"        validate:"omitempty"`
}

type loginRequest struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password"          validate:"required"`
}

type sessionRequest struct {
	Action string `json:"action" validate:"required,max=255"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name}
}

// Register creates a new identity with its credentials.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  Envelope{data=userResponse}
// @Failure      400   {object}  Envelope
// @Failure      500   {object}  Envelope
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role := req.ProfileName
	if role == "" {
		role = req.Role
	}
	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Role:      role,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "user registered", toUserResponse(user))
}

// Login exchanges an email or username plus password for a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  Envelope{data=loginResponse}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.User.ID,
	})
}

// Session issues a short one-time handshake code.
//
// @Summary      Create a session code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      sessionRequest  true  "Action label"
// @Success      201   {object}  Envelope{data=domain.Session}
// @Failure      400   {object}  Envelope
// @Failure      401   {object}  Envelope
// @Failure      403   {object}  Envelope
// @Router       /api/session [post]
func (h *AuthHandler) Session(c echo.Context) error {
	var req sessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sess, err := h.authService.CreateSession(c.Request().Context(), actorFrom(c), req.Action)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "session created", sess)
}
