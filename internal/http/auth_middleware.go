package httpx

import (
	"context"
	"net/http"
	"strings"
)

// authHeader is the request header carrying the identity token.
const authHeader = "authentication"

type authContextKey string

const contextKeyAuth authContextKey = "lesson-planner-auth"

type authInfo struct {
	Username string
}

// requireAuth guards account routes. A missing authentication header is a
// malformed request (400); a header that fails verification is 401.
func (r *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := tokenFromHeader(req)
		if token == "" {
			writeError(w, http.StatusBadRequest, "authentication header required")
			return
		}
		claims, err := r.auth.Authorize(token)
		if err != nil {
			r.logger.Warn("token validation failed", "error", err, "path", req.URL.Path)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		info := authInfo{Username: claims.Username}
		ctx := context.WithValue(req.Context(), contextKeyAuth, info)
		if setter, ok := w.(contextSetter); ok {
			setter.SetContext(ctx)
		}
		next(w, req.WithContext(ctx))
	}
}

// authInfoFromContext extracts auth metadata from context.
func authInfoFromContext(ctx context.Context) (authInfo, bool) {
	value := ctx.Value(contextKeyAuth)
	if value == nil {
		return authInfo{}, false
	}
	info, ok := value.(authInfo)
	return info, ok
}

// tokenFromHeader reads the authentication header, accepting either a bare
// token or the Bearer prefix form.
func tokenFromHeader(req *http.Request) string {
	value := strings.TrimSpace(req.Header.Get(authHeader))
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return value
}

type contextSetter interface {
	SetContext(context.Context)
}
