package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/trips
func CreateTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	trip, err := services.CreateTrip(c.Request.Context(), database.DB, userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip created", trip.ToResponse())
}

// GET /api/trips
func GetTrips(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	trips, err := services.ListTrips(c.Request.Context(), database.DB, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	responses := make([]models.TripResponse, 0, len(trips))
	for i := range trips {
		responses = append(responses, trips[i].ToResponse())
	}
	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	if _, err := services.RequireMember(c.Request.Context(), database.DB, tripID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}
	trip, err := services.GetTrip(c.Request.Context(), database.DB, tripID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", trip.ToResponse())
}

// PUT /api/trips/:id
func UpdateTrip(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.UpdateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	trip, err := services.UpdateTrip(c.Request.Context(), database.DB, tripID, userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip updated", trip.ToResponse())
}

// DELETE /api/trips/:id
func DeleteTrip(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	if err := services.DeleteTrip(c.Request.Context(), database.DB, tripID, userID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Trip deleted", nil)
}
