package handlers

import (
	"net/http"
	"strings"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// GET /api/users/me
func GetProfile(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", user.ToResponse())
}

// PUT /api/users/me
func UpdateProfile(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		updates["name"] = name
	}
	if req.AvatarURL != "" {
		updates["avatar_url"] = req.AvatarURL
	}
	if req.Currency != "" {
		updates["currency"] = strings.ToUpper(req.Currency)
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			utils.InternalError(c, "Failed to update profile")
			return
		}
		database.DB.First(&user, "id = ?", userID)
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated", user.ToResponse())
}

// POST /api/users/search
func SearchUsers(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required,min=2"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	pattern := "%" + strings.ToLower(strings.TrimSpace(req.Query)) + "%"
	var users []models.User
	if err := database.DB.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(20).
		Find(&users).Error; err != nil {
		utils.InternalError(c, "Search failed")
		return
	}

	responses := make([]models.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, users[i].ToResponse())
	}

	utils.SuccessResponse(c, http.StatusOK, "", responses)
}
