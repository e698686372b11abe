package middleware

import (
  "crypto/subtle"
  "fmt"
  "net/http"
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/golang-jwt/jwt/v5"
  "github.com/worksy/worksy-backend/internal/logger"
)

// AdminMiddleware guards the administrative surface. A caller authenticates
// with either the static X-Admin-Key header or a bearer JWT signed with the
// admin key. With no admin key configured the surface stays closed.
type AdminMiddleware struct {
  log      *logger.Logger
  adminKey string
}

func NewAdminMiddleware(log *logger.Logger, adminKey string) *AdminMiddleware {
  middlewareLogger := log.With("Middleware", "AdminMiddleware")
  return &AdminMiddleware{log: middlewareLogger, adminKey: adminKey}
}

func (am *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
  return func(c *gin.Context) {
    if am.adminKey == "" {
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    if key := c.GetHeader("X-Admin-Key"); key != "" {
      if subtle.ConstantTimeCompare([]byte(key), []byte(am.adminKey)) == 1 {
        c.Next()
        return
      }
      c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
      return
    }
    if token := extractBearerToken(c); token != "" {
      if err := am.validateToken(token); err == nil {
        c.Next()
        return
      } else {
        am.log.Debug("Admin token rejected", "error", err)
      }
    }
    c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
  }
}

func (am *AdminMiddleware) validateToken(tokenString string) error {
  token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return []byte(am.adminKey), nil
  })
  if err != nil {
    return err
  }
  if !token.Valid {
    return fmt.Errorf("invalid token")
  }
  claims, ok := token.Claims.(jwt.MapClaims)
  if !ok {
    return fmt.Errorf("invalid claims")
  }
  if role, _ := claims["role"].(string); role != "admin" {
    return fmt.Errorf("missing admin role")
  }
  return nil
}

func extractBearerToken(c *gin.Context) string {
  authHeader := c.GetHeader("Authorization")
  if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
    return authHeader[7:]
  }
  return ""
}
