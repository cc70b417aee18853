package handlers

import (
	"net/http"
	"tripsplit-backend/database"
	"tripsplit-backend/models"
	"tripsplit-backend/services"
	"tripsplit-backend/utils"

	"github.com/gin-gonic/gin"
)

// POST /api/trips/:id/spends
func CreateSpend(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var req models.CreateSpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	spend, err := spendService.Create(c.Request.Context(), tripID, userID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Spend added", spend.ToResponse())
}

// GET /api/trips/:id/spends
func GetTripSpends(c *gin.Context) {
	tripID, userID, ok := tripAndUser(c)
	if !ok {
		return
	}

	var query models.SpendListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	spends, err := spendService.List(c.Request.Context(), tripID, userID, query, bindPage(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	responses := make([]models.SpendResponse, 0, len(spends))
	for i := range spends {
		responses = append(responses, spends[i].ToResponse())
	}
	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/spends/:id
func GetSpend(c *gin.Context) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	spend, err := spendService.Get(c.Request.Context(), spendID, utils.GetCurrentUserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", spend.ToResponse())
}

// PUT /api/spends/:id
func UpdateSpend(c *gin.Context) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateSpendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	spend, err := spendService.Update(c.Request.Context(), spendID, utils.GetCurrentUserID(c), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Spend updated", spend.ToResponse())
}

// DELETE /api/spends/:id
func DeleteSpend(c *gin.Context) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := spendService.Delete(c.Request.Context(), spendID, utils.GetCurrentUserID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Spend deleted", nil)
}

// POST /api/spends/:id/close
func CloseSpend(c *gin.Context) {
	setSpendStatus(c, models.SpendClosed, "Spend closed")
}

// POST /api/spends/:id/reopen
func ReopenSpend(c *gin.Context) {
	setSpendStatus(c, models.SpendOpen, "Spend reopened")
}

func setSpendStatus(c *gin.Context, status, message string) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}

	spend, err := spendService.SetStatus(c.Request.Context(), spendID, utils.GetCurrentUserID(c), status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, message, spend.ToResponse())
}

// POST /api/spends/:id/tags/:tagId
func TagSpend(c *gin.Context) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	tagID, ok := utils.ParamUUID(c, "tagId")
	if !ok {
		return
	}

	if err := services.AttachTag(c.Request.Context(), database.DB, spendID, tagID, utils.GetCurrentUserID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Tag added", nil)
}

// DELETE /api/spends/:id/tags/:tagId
func UntagSpend(c *gin.Context) {
	spendID, ok := utils.ParamUUID(c, "id")
	if !ok {
		return
	}
	tagID, ok := utils.ParamUUID(c, "tagId")
	if !ok {
		return
	}

	if err := services.DetachTag(c.Request.Context(), database.DB, spendID, tagID, utils.GetCurrentUserID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Tag removed", nil)
}
