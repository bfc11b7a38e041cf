package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type authResponse struct {
	Token      string    `json:"token"`
	Username   string    `json:"username"`
	Role       string    `json:"role"`
	Expiration time.Time `json:"expiration"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := s.authn.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			s.logger.Warn("login failed", "username", req.Username)
			writeError(w, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
			return
		}
		s.logger.Error("login error", "username", req.Username, "err", err)
		writeError(w, http.StatusInternalServerError, "an error occurred during login")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Token:      result.Token,
		Username:   result.Username,
		Role:       string(result.Role),
		Expiration: result.ExpiresAt,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Email == "" || req.FullName == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username, email, fullName and password are required")
		return
	}

	result, err := s.authn.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		var regErr *service.RegistrationError
		switch {
		case errors.Is(err, service.ErrDuplicateUser):
			s.logger.Warn("registration rejected", "username", req.Username, "reason", "duplicate user")
			writeError(w, http.StatusBadRequest, service.ErrDuplicateUser.Error())
		case errors.As(err, &regErr):
			s.logger.Warn("registration rejected", "username", req.Username, "reason", regErr.Error())
			writeError(w, http.StatusBadRequest, regErr.Error())
		default:
			s.logger.Error("registration error", "username", req.Username, "err", err)
			writeError(w, http.StatusInternalServerError, "an error occurred during registration")
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Token:      result.Token,
		Username:   result.Username,
		Role:       string(result.Role),
		Expiration: result.ExpiresAt,
	})
}
