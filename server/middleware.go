package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates bearer tokens against an external auth service.
// The help endpoint stays open so load balancers can probe the server.
func AuthMiddleware(authServiceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.FullPath() == "/help" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warnf("Missing authorization header from %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractToken(authHeader)
		if token == "" {
			log.Warnf("Invalid authorization format from %s", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		valid, userID, err := validateToken(token, authServiceURL)
		if err != nil || !valid {
			log.Warnf("Invalid token from %s: %v", c.ClientIP(), err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func validateToken(token, authServiceURL string) (bool, string, error) {
	payload, _ := json.Marshal(map[string]string{"token": token})

	resp, err := http.Post(authServiceURL+"/api/v3/validate-token",
		"application/json", bytes.NewBuffer(payload))
	if err != nil {
		return false, "", err
	}
	defer resp.Body.Close()

	var result struct {
		Valid  bool   `json:"valid"`
		UserID string `json:"user_id"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, "", err
	}
	return result.Valid, result.UserID, nil
}
