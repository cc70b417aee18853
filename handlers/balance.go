package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/trips/:id/balances
func GetTripBalances(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	if _, err := services.RequireMember(c.Request.Context(), database.DB, tripID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}

	summary, err := balanceService.CalculateTripBalances(c.Request.Context(), tripID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", summary)
}

// GET /api/trips/:id/ledger
func GetTripLedger(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	if _, err := services.RequireMember(c.Request.Context(), database.DB, tripID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}

	ledger, err := balanceService.TripDebtLedger(c.Request.Context(), tripID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", ledger)
}

// GET /api/balances
// The caller's balance in each of their trips.
func GetOverallBalances(c *gin.Context) {
	balances, err := balanceService.UserTripBalances(c.Request.Context(), utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", balances)
}
