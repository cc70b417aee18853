package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const fxRateTTL = 30 * 24 * time.Hour

// FxRateStore resolves the rate used to normalize a spend into the trip's
// base currency. Redis remembers the last rate per trip and currency; the
// database is the fallback when the cache is cold or absent.
type FxRateStore struct {
	db    *gorm.DB
	cache *redis.Client
}

func NewFxRateStore(db *gorm.DB, cache *redis.Client) *FxRateStore {
	return &FxRateStore{db: db, cache: cache}
}

func fxKey(tripID uuid.UUID, currency string) string {
	return fmt.Sprintf("fx:%s:%s", tripID, strings.ToUpper(currency))
}

// Resolve picks the rate in order: same currency, explicit, cached, last used on the trip.
func (s *FxRateStore) Resolve(ctx context.Context, tripID uuid.UUID, currency, baseCurrency string, explicit *decimal.Decimal) (decimal.Decimal, error) {
	if strings.EqualFold(currency, baseCurrency) {
		return decimal.NewFromInt(1), nil
	}

	if explicit != nil {
		if !explicit.IsPositive() {
			return decimal.Zero, utils.Validationf("fx_rate must be greater than 0")
		}
		s.Remember(ctx, tripID, currency, *explicit)
		return *explicit, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, fxKey(tripID, currency)).Result()
		if err == nil {
			if rate, perr := decimal.NewFromString(cached); perr == nil && rate.IsPositive() {
				return rate, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			utils.Logger.WithError(err).Warn("fx rate cache read failed")
		}
	}

	var last models.Spend
	err := s.db.WithContext(ctx).
		Where("trip_id = ? AND currency = ? AND fx_rate > 0", tripID, strings.ToUpper(currency)).
		Order("date DESC, created_at DESC").
		First(&last).Error
	if err == nil {
		s.Remember(ctx, tripID, currency, last.FxRate)
		return last.FxRate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, fmt.Errorf("failed to look up fx rate: %w", err)
	}

	return decimal.Zero, utils.Validationf("fx_rate is required for %s spends on a %s trip", strings.ToUpper(currency), baseCurrency)
}

// Remember caches a rate. Cache failures are logged only.
func (s *FxRateStore) Remember(ctx context.Context, tripID uuid.UUID, currency string, rate decimal.Decimal) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, fxKey(tripID, currency), rate.String(), fxRateTTL).Err(); err != nil {
		utils.Logger.WithError(err).Warn("fx rate cache write failed")
	}
}
