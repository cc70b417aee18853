package handlers

import (
	"net/http"
	"tripsplit-backend/middleware"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/trips/:id/invitations
func InviteToTrip(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	invitation, err := invitationService.Invite(c.Request.Context(), tripID, userID, req.Email)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Invitation sent", invitation)
}

// POST /api/invitations/accept
func AcceptInvitation(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		utils.Unauthorized(c, "Authentication required")
		return
	}

	var req models.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	member, err := invitationService.Accept(c.Request.Context(), user, req.Token)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Welcome aboard", member)
}
