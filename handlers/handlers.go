package handlers

import (
	"time"
	"tripsplit-backend/config"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	balanceService    *services.BalanceService
	spendService      *services.SpendService
	invitationService *services.InvitationService
)

// Init wires the services the handlers call. main runs it once after the
// database and cache are connected.
func Init(db *gorm.DB, cache *redis.Client, notifier services.Notifier, cfg *config.Config) {
	balanceService = services.NewBalanceService(db)
	spendService = services.NewSpendService(db, services.NewFxRateStore(db, cache), notifier)
	invitationService = services.NewInvitationService(db, cfg.JWTSecret,
		time.Duration(cfg.InviteTTLHours)*time.Hour, cfg.AppURL, notifier)
}

// bindPage reads page and limit from the query string.
func bindPage(c *gin.Context) utils.PaginationQuery {
	var page utils.PaginationQuery
	c.ShouldBindQuery(&page)
	page.Normalize()
	return page
}

// tripAndUser reads the :id trip parameter together with the caller.
func tripAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	tripID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, utils.GetCurrentUserID(c), true
}
