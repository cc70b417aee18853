package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/trips/:id/members
func GetMembers(c *gin.Context) {
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

	utils.SuccessResponse(c, http.StatusOK, "", trip.ToResponse().Members)
}

// POST /api/trips/:id/members
func AddMember(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	member, err := services.AddMemberByEmail(c.Request.Context(), database.DB, tripID, userID, req.Email)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Member added", member)
}

// DELETE /api/trips/:id/members/:uid
func RemoveMember(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}
	targetID, ok := utils.ParamUUID(c, "uid")
	if !ok {
		return
	}

	if err := services.RemoveMember(c.Request.Context(), database.DB, tripID, userID, targetID); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}

// PUT /api/trips/:id/members/:uid/role
func UpdateMemberRole(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}
	targetID, ok := utils.ParamUUID(c, "uid")
	if !ok {
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	member, err := services.UpdateMemberRole(c.Request.Context(), database.DB, tripID, userID, targetID, req.Role)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Role updated", member)
}

// PUT /api/trips/:id/rsvp
func UpdateRSVP(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.RSVPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	member, err := services.SetRSVP(c.Request.Context(), database.DB, tripID, userID, req.Status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "RSVP updated", member)
}
