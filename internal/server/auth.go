package server

import (
	"context"
	"net/http"
	"strings"
)

// User is the account record returned by a UserDirectory.
type User struct {
	ID    string
	Name  string
	Email string
}

// UserDirectory is the account backend behind the auth routes. Storage,
// password hashing and token signing live in the implementation.
type UserDirectory interface {
	CreateUser(ctx context.Context, name, email, password string) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, bool, error)
	VerifyPassword(ctx context.Context, user User, password string) (bool, error)
	IssueToken(ctx context.Context, user User) (string, error)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "signup")

	var req signupRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	ctx := r.Context()
	if _, found, err := s.users.FindUserByEmail(ctx, req.Email); err != nil {
		reqLog.WithField("error", err.Error()).Error("lookup failed")
		writeError(w, http.StatusInternalServerError, "An error occurred during signup")
		return
	} else if found {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}

	user, err := s.users.CreateUser(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("create user failed")
		writeError(w, http.StatusInternalServerError, "An error occurred during signup")
		return
	}
	token, err := s.users.IssueToken(ctx, user)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("issue token failed")
		writeError(w, http.StatusInternalServerError, "An error occurred during signup")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "login")

	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	fail := func(err error) {
		reqLog.WithField("error", err.Error()).Error("login failed")
		writeError(w, http.StatusInternalServerError, "An error occurred during login")
	}

	user, found, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		fail(err)
		return
	}
	if !found {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	ok, err := s.users.VerifyPassword(ctx, user, req.Password)
	if err != nil {
		fail(err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	token, err := s.users.IssueToken(ctx, user)
	if err != nil {
		fail(err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID})
}
