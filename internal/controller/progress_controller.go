package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

type UpdateProgressRequest struct {
	CompletedSkills []string `json:"completed_skills" binding:"required"`
}

// @Summary 学习进度
// @Tags 进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Progress}
// @Router /api/progress/ [get]
func (c *ProgressController) Get(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	progress, err := c.ProgressService.Get(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

// @Summary 更新已掌握技能
// @Tags 进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateProgressRequest true "已掌握技能"
// @Success 200 {object} util.Response{data=model.Progress}
// @Router /api/progress/update [patch]
func (c *ProgressController) Update(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req UpdateProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, err := c.ProgressService.Update(ctx.Request.Context(), userID, req.CompletedSkills)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}
