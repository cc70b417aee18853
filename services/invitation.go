package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInvalidInvite = errors.New("invalid invitation token")
	ErrExpiredInvite = errors.New("invitation has expired")
)

// InviteClaims is the payload of a join link token.
type InviteClaims struct {
	jwt.RegisteredClaims
	TripID       string `json:"trip_id"`
	InvitationID string `json:"invitation_id"`
	Email        string `json:"email"`
}

type InvitationService struct {
	db       *gorm.DB
	secret   []byte
	ttl      time.Duration
	appURL   string
	notifier Notifier
	now      func() time.Time
}

func NewInvitationService(db *gorm.DB, secret string, ttl time.Duration, appURL string, notifier Notifier) *InvitationService {
	return &InvitationService{
		db:       db,
		secret:   []byte(secret),
		ttl:      ttl,
		appURL:   strings.TrimRight(appURL, "/"),
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *InvitationService) signToken(inv models.Invitation) (string, error) {
	claims := &InviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        inv.ID.String(),
			Subject:   inv.Email,
			ExpiresAt: jwt.NewNumericDate(inv.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
		},
		TripID:       inv.TripID.String(),
		InvitationID: inv.ID.String(),
		Email:        inv.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies a join token's signature and expiry.
func (s *InvitationService) ParseToken(token string) (*InviteClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &InviteClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredInvite
		}
		return nil, ErrInvalidInvite
	}
	claims, ok := parsed.Claims.(*InviteClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidInvite
	}
	return claims, nil
}

// Invite creates a pending invitation, revoking older pending ones for the
// same address, and emails the join link.
func (s *InvitationService) Invite(ctx context.Context, tripID, inviterID uuid.UUID, email string) (*models.InvitationResponse, error) {
	if _, err := RequireManager(ctx, s.db, tripID, inviterID); err != nil {
		return nil, err
	}
	trip, err := GetTrip(ctx, s.db, tripID)
	if err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	var inviter models.User
	for _, m := range trip.Members {
		if strings.EqualFold(m.User.Email, email) {
			return nil, fmt.Errorf("%w: %s is already a member of this trip", utils.ErrConflict, email)
		}
		if m.UserID == inviterID {
			inviter = m.User
		}
	}

	inv := models.Invitation{
		TripID:    tripID,
		InvitedBy: inviterID,
		Email:     email,
		Status:    models.InvitationPending,
		ExpiresAt: s.now().Add(s.ttl).UTC(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Invitation{}).
			Where("trip_id = ? AND email = ? AND status = ?", tripID, email, models.InvitationPending).
			Update("status", models.InvitationRevoked).Error; err != nil {
			return fmt.Errorf("failed to revoke old invitations: %w", err)
		}
		if err := tx.Create(&inv).Error; err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := s.signToken(inv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign invitation: %w", err)
	}
	link := s.appURL + "/join?token=" + url.QueryEscape(token)

	LogActivity(ctx, s.db, tripID, inviterID, models.ActivityInvitationSent, inv.ID, fmt.Sprintf("invited %s", email))
	if s.notifier != nil {
		go s.notifier.NotifyInvitation(email, inviter.Name, trip.Name, link)
	}

	return &models.InvitationResponse{Invitation: inv, Link: link}, nil
}

// Accept redeems a join token for the calling user.
func (s *InvitationService) Accept(ctx context.Context, user *models.User, token string) (*models.TripMember, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, err.Error())
	}
	invitationID, err := uuid.Parse(claims.InvitationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrValidation, ErrInvalidInvite.Error())
	}
	if user.Email != "" && !strings.EqualFold(user.Email, claims.Email) {
		return nil, fmt.Errorf("%w: this invitation was sent to a different email address", utils.ErrForbidden)
	}

	var member *models.TripMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		if err := tx.First(&inv, "id = ?", invitationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.NewNotFound("invitation", invitationID.String())
			}
			return fmt.Errorf("failed to load invitation: %w", err)
		}
		if inv.TripID.String() != claims.TripID {
			return fmt.Errorf("%w: %s", utils.ErrValidation, ErrInvalidInvite.Error())
		}
		if inv.Status != models.InvitationPending {
			return fmt.Errorf("%w: invitation is %s", utils.ErrConflict, strings.ToLower(inv.Status))
		}

		var trips int64
		if err := tx.Model(&models.Trip{}).Where("id = ?", inv.TripID).Count(&trips).Error; err != nil {
			return fmt.Errorf("failed to load trip: %w", err)
		}
		if trips == 0 {
			return utils.NewNotFound("trip", inv.TripID.String())
		}

		joined, err := joinTrip(ctx, tx, inv.TripID, user.ID)
		if err != nil {
			return err
		}
		member = joined

		return tx.Model(&models.Invitation{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
			"status":      models.InvitationAccepted,
			"accepted_by": user.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	LogActivity(ctx, s.db, member.TripID, user.ID, models.ActivityMemberJoined, user.ID, fmt.Sprintf("%s joined the trip", user.Name))
	return member, nil
}
