package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/roads-authority/backend/internal/infrastructure/auth"
	"github.com/roads-authority/backend/internal/infrastructure/logger"
	"github.com/roads-authority/backend/internal/interfaces/http/dto"
)

// Gin context keys populated after successful authentication.
const (
	JWTAdminIDKey = "jwt_admin_id"
	JWTActorKey   = "jwt_actor"

	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTMiddlewareConfig configures the clerk authentication middleware.
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Without it revoked tokens stay valid
	// until they expire.
	TokenBlacklist auth.TokenBlacklist
	// SkipPaths and SkipPathPrefixes bypass authentication entirely. The
	// applicant tracking endpoints live here, they authenticate with
	// reference code and PIN instead.
	SkipPaths        []string
	SkipPathPrefixes []string
	// OnError replaces the default 401 JSON response when set.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// JWTAuthMiddlewareWithConfig validates the bearer token on every request
// that is not on a skip list, checks it against the blacklist, and stores
// the clerk identity in both the gin and request contexts.
func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipAuth(cfg, c.Request.URL.Path) {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			handleAuthError(c, cfg, err, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			handleAuthError(c, cfg, err, "Token validation failed")
			return
		}

		if cfg.TokenBlacklist != nil && !passesBlacklist(c, cfg, claims) {
			return
		}

		c.Set(JWTAdminIDKey, claims.AdminID)
		c.Set(JWTActorKey, claims.Actor())

		// Downstream log lines carry the clerk identity via the request
		// context.
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, _ = logger.WithAdminID(ctx, log, claims.AdminID)
		c.Request = c.Request.WithContext(ctx)

		if cfg.Logger != nil {
			cfg.Logger.Debug("JWT authentication successful",
				zap.String("admin_id", claims.AdminID),
				zap.String("email", claims.Email),
			)
		}

		c.Next()
	}
}

func skipAuth(cfg JWTMiddlewareConfig, path string) bool {
	for _, skipPath := range cfg.SkipPaths {
		if path == skipPath {
			return true
		}
	}
	for _, prefix := range cfg.SkipPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(authHeader, BearerPrefix) {
		return "", auth.ErrInvalidToken
	}
	tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
	if tokenString == "" {
		return "", auth.ErrInvalidToken
	}
	return tokenString, nil
}

// passesBlacklist rejects tokens revoked individually (logout by JTI) or
// through a global invalidation of the clerk's sessions. Blacklist lookup
// failures fail open, losing Redis must not lock the back office out.
func passesBlacklist(c *gin.Context, cfg JWTMiddlewareConfig, claims *auth.Claims) bool {
	ctx := c.Request.Context()

	if claims.ID != "" {
		blacklisted, err := cfg.TokenBlacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check token blacklist",
					zap.String("jti", claims.ID),
					zap.Error(err))
			}
		} else if blacklisted {
			handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Token has been revoked")
			return false
		}
	}

	if claims.AdminID != "" {
		invalidated, err := cfg.TokenBlacklist.IsAdminTokenInvalidated(ctx, claims.AdminID, claims.GetIssuedAtTime())
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("Failed to check admin token invalidation",
					zap.String("admin_id", claims.AdminID),
					zap.Error(err))
			}
		} else if invalidated {
			handleAuthError(c, cfg, auth.ErrTokenBlacklisted, "Session has been invalidated")
			return false
		}
	}

	return true
}

var authErrorMessages = map[error]string{
	auth.ErrExpiredToken:     "Token has expired",
	auth.ErrInvalidToken:     "Invalid token",
	auth.ErrInvalidTokenType: "Invalid token type",
	auth.ErrTokenNotYetValid: "Token is not yet valid",
	auth.ErrTokenBlacklisted: "Token has been revoked",
}

func handleAuthError(c *gin.Context, cfg JWTMiddlewareConfig, err error, message string) {
	if cfg.OnError != nil {
		cfg.OnError(c, err)
		return
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("JWT authentication failed",
			zap.Error(err),
			zap.String("message", message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	errorMessage := authErrorMessages[err]
	if errorMessage == "" {
		errorMessage = "Authentication required"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, errorMessage))
}

// GetJWTAdminID returns the authenticated clerk's id, or "".
func GetJWTAdminID(c *gin.Context) string {
	if adminID, exists := c.Get(JWTAdminIDKey); exists {
		if id, ok := adminID.(string); ok {
			return id
		}
	}
	return ""
}

// GetJWTActor returns the audit-trail actor identity recorded verbatim in
// status-history entries, or "".
func GetJWTActor(c *gin.Context) string {
	if actor, exists := c.Get(JWTActorKey); exists {
		if a, ok := actor.(string); ok {
			return a
		}
	}
	return ""
}
