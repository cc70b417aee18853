package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

const (
	bearerPrefix   = "Bearer "
	currentUserKey = "current_user"
	maxTokenCache  = 10 * time.Minute
)

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// NewFirebaseVerifier builds the Admin SDK auth client from a service account file.
func NewFirebaseVerifier(ctx context.Context, projectID, credentialsFile string) (*auth.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}
	return client, nil
}

// identity is what we keep from a verified token.
type identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func tokenCacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:" + hex.EncodeToString(sum[:])
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

func verify(ctx context.Context, verifier TokenVerifier, cache *redis.Client, token string) (*identity, error) {
	key := tokenCacheKey(token)
	if cache != nil {
		if raw, err := cache.Get(ctx, key).Bytes(); err == nil {
			var id identity
			if json.Unmarshal(raw, &id) == nil && id.UID != "" {
				return &id, nil
			}
		}
	}

	verified, err := verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, err
	}
	id := &identity{
		UID:   verified.UID,
		Email: claimString(verified.Claims, "email"),
		Name:  claimString(verified.Claims, "name"),
	}

	if cache != nil {
		ttl := time.Until(time.Unix(verified.Expires, 0))
		if ttl > maxTokenCache {
			ttl = maxTokenCache
		}
		if ttl > 0 {
			if raw, err := json.Marshal(id); err == nil {
				if err := cache.Set(ctx, key, raw, ttl).Err(); err != nil {
					utils.Logger.WithError(err).Debug("token cache write failed")
				}
			}
		}
	}
	return id, nil
}

// AuthRequired verifies the bearer token, maps it to a local user and
// stores both the user and its id on the context.
func AuthRequired(verifier TokenVerifier, db *gorm.DB, cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			utils.Unauthorized(c, "Missing or malformed authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			utils.Unauthorized(c, "Missing token")
			return
		}

		id, err := verify(c.Request.Context(), verifier, cache, token)
		if err != nil {
			utils.Logger.WithError(err).Debug("ID token rejected")
			utils.Unauthorized(c, "Invalid or expired token")
			return
		}

		user, err := services.FindOrCreateUser(c.Request.Context(), db, id.UID, id.Email, id.Name)
		if err != nil {
			utils.Logger.WithError(err).Error("Failed to resolve user")
			utils.InternalError(c, "Failed to resolve user")
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// SetCurrentUser attaches an authenticated user to the request.
func SetCurrentUser(c *gin.Context, user *models.User) {
	utils.SetCurrentUserID(c, user.ID)
	c.Set(currentUserKey, user)
}
