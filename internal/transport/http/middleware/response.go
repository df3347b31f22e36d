package middleware

import (
	"encoding/json"
	"net/http"
)

const (
	SignInPath = "/v1/sign-in"
	VerifyPath = "/v1/verify"
)

// RedirectBody is written alongside every 303 so API clients that do not
// follow redirects still learn where to go.
type RedirectBody struct {
	RedirectTo string `json:"redirect_to"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Redirect answers with 303 See Other to location.
func Redirect(w http.ResponseWriter, location, code string) {
	w.Header().Set("Location", location)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusSeeOther)
	_ = json.NewEncoder(w).Encode(RedirectBody{RedirectTo: location, ErrorCode: code})
}
