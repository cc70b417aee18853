package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/checklist-templates
func CreateChecklistTemplate(c *gin.Context) {
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	tmpl, err := services.CreateTemplate(c.Request.Context(), database.DB, utils.GetCurrentUserID(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Template created", tmpl)
}

// GET /api/checklist-templates
func GetChecklistTemplates(c *gin.Context) {
	templates, err := services.ListTemplates(c.Request.Context(), database.DB, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", templates)
}

// POST /api/trips/:id/checklists
func CreateChecklist(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	list, err := services.CreateChecklist(c.Request.Context(), database.DB, tripID, userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Checklist created", list)
}

// GET /api/trips/:id/checklists
func GetChecklists(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	lists, err := services.ListChecklists(c.Request.Context(), database.DB, tripID, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", lists)
}

// PUT /api/checklist-items/:id/toggle
func ToggleChecklistItem(c *gin.Context) {
	itemID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	item, err := services.ToggleItem(c.Request.Context(), database.DB, itemID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", item)
}
