package controller

import (
	"net/http"

	"github.com/unclebandit/leadgen-backend/internal/auth"
	appErrors "github.com/unclebandit/leadgen-backend/internal/errors"
	"github.com/unclebandit/leadgen-backend/internal/model"
	"github.com/unclebandit/leadgen-backend/internal/service"
)

type AuthController struct {
	AuthService *service.AuthService
	// DevLogin enables the query-parameter login used in development.
	DevLogin      bool
	SecureCookies bool
}

// Login opens a session for the identity in the query string and redirects home.
// The identity provider round trip lives outside this service; without DevLogin
// the route answers 501.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	if !c.DevLogin {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"message": "login is handled by the identity provider"})
		return
	}
	q := r.URL.Query()
	u := &model.User{
		ID:              q.Get("sub"),
		Email:           q.Get("email"),
		FirstName:       q.Get("firstName"),
		LastName:        q.Get("lastName"),
		ProfileImageURL: q.Get("profileImageUrl"),
	}
	token, expiresAt, err := c.AuthService.Login(r.Context(), u)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	auth.SetSessionCookie(w, token, expiresAt, c.SecureCookies)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		if err := c.AuthService.Logout(r.Context(), token); err != nil {
			writeError(w, r, "logout", err)
			return
		}
	}
	auth.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (c *AuthController) CurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, "current_user", appErrors.Unauthorized("Unauthorized"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}
