package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/amplerun/zain-crafter/configs"
	"github.com/amplerun/zain-crafter/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const actorKey = "actor"

type Authz struct {
	cfg configs.Config
}

func NewAuthz(cfg configs.Config) *Authz {
	return &Authz{cfg: cfg}
}

// Authenticate checks the bearer JWT and stores the caller as an Actor in
// the gin context. Role enforcement happens in the use cases through the
// Authorizer port; routes only require a valid identity.
func (a *Authz) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(a.cfg.Security.JWTSecret), nil
		}, jwt.WithLeeway(30*time.Second)) // small clock skew

		if err != nil || !token.Valid {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauth(c, "invalid_token", "claims parsing error")
			return
		}

		if claims["iss"] != a.cfg.Security.Issuer || claims["aud"] != a.cfg.Security.Audience {
			unauth(c, "invalid_token", "iss/aud mismatch")
			return
		}

		actor := usecase.Actor{
			ID:   stringClaim(claims, "sub"),
			Name: stringClaim(claims, "name"),
			Role: stringClaim(claims, "role"),
		}
		if actor.ID == "" {
			unauth(c, "invalid_token", "missing subject")
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller, or a zero Actor when the route
// skipped authentication.
func ActorFrom(c *gin.Context) usecase.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(usecase.Actor); ok {
			return a
		}
	}
	return usecase.Actor{}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if s, ok := claims[key].(string); ok {
		return s
	}
	return ""
}

// RoleAuthorizer implements the usecase authorization port from the actor's
// role claim.
type RoleAuthorizer struct{}

func (RoleAuthorizer) IsSellerOrAdmin(actor usecase.Actor) bool {
	return actor.Role == "seller" || actor.Role == "admin"
}

var _ usecase.Authorizer = RoleAuthorizer{}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}
