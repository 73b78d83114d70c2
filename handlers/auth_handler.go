package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/services"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultAdminTokenTTL is how long an admin login stays valid.
const DefaultAdminTokenTTL = 12 * time.Hour

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	tokenTTL    time.Duration
	now         func() time.Time
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = DefaultAdminTokenTTL
	}
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Password string `json:"password"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Password == "" {
		badRequestResponse(w, r, errors.New("password is required"))
		return
	}

	now := h.now()
	// JWT хранит exp в секундах, сессия не должна пережить токен
	expiresAt := now.Add(h.tokenTTL).Truncate(time.Second)

	if err := h.authService.Login(r.Context(), input.Password, expiresAt); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	claims := jwt.MapClaims{
		"role": models.RoleAdmin,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	response := jsonResponse{
		"token":      tokenString,
		"expires_at": expiresAt,
	}
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}
