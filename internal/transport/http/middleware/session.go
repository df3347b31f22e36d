package middleware

import "net/http"

// RequireSession sends requests without a guard-resolved session to sign in.
// Routes the guard always permits, such as the verification screen, still use
// it for the operations that act on behalf of a user.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			Redirect(w, SignInPath, "state_missing")
			return
		}
		next.ServeHTTP(w, r)
	})
}
