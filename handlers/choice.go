package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/trips/:id/choices
func CreateChoice(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.CreateChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	detail, err := services.CreateChoice(c.Request.Context(), database.DB, tripID, userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Choice created", detail)
}

// GET /api/trips/:id/choices
func GetChoices(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	choices, err := services.ListChoices(c.Request.Context(), database.DB, tripID, userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", choices)
}

// GET /api/choices/:id
func GetChoice(c *gin.Context) {
	choiceID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	detail, err := services.GetChoice(c.Request.Context(), database.DB, choiceID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", detail)
}

// PUT /api/choices/:id/responses
func RespondToChoice(c *gin.Context) {
	choiceID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req models.ChoiceSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	detail, err := services.SetSelection(c.Request.Context(), database.DB, choiceID, utils.GetCurrentUserID(c), req.OptionIDs)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Selection saved", detail)
}

// POST /api/choices/:id/close
func CloseChoice(c *gin.Context) {
	choiceID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	detail, err := services.CloseChoice(c.Request.Context(), database.DB, choiceID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Choice closed", detail)
}
