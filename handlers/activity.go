package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/activity
// Feed across all of the caller's trips.
func GetActivity(c *gin.Context) {
	activities, err := services.ListUserActivity(c.Request.Context(), database.DB, utils.GetCurrentUserID(c), bindPage(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/trips/:id/activity
func GetTripActivity(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	if _, err := services.RequireMember(c.Request.Context(), database.DB, tripID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}

	activities, err := services.ListActivity(c.Request.Context(), database.DB, tripID, bindPage(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
