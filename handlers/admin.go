package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

type AdminStats struct {
	Users              int64 `json:"users"`
	Trips              int64 `json:"trips"`
	Spends             int64 `json:"spends"`
	PendingInvitations int64 `json:"pending_invitations"`
}

// GET /api/admin/stats
func GetAdminStats(c *gin.Context) {
	db := database.DB.WithContext(c.Request.Context())

	var stats AdminStats
	if err := db.Model(&models.User{}).Count(&stats.Users).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := db.Model(&models.Trip{}).Count(&stats.Trips).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := db.Model(&models.Spend{}).Count(&stats.Spends).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := db.Model(&models.Invitation{}).Where("status = ?", models.InvitationPending).Count(&stats.PendingInvitations).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", stats)
}
