package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GamificationController struct {
	GamificationService *service.GamificationService
}

func NewGamificationController(gamificationService *service.GamificationService) *GamificationController {
	return &GamificationController{GamificationService: gamificationService}
}

type AddXPRequest struct {
	Amount int `json:"amount" binding:"required,min=1,max=1000000"`
}

type BadgeRequest struct {
	BadgeID *int `json:"badge_id" binding:"required"`
}

type ProjectStepRequest struct {
	ProjectID      string `json:"project_id" binding:"required"`
	CompletedSteps []int  `json:"completed_steps" binding:"required,dive,min=0"`
}

// AddXP godoc
// @Summary 增加经验值
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AddXPRequest true "经验值 (>= 1)"
// @Success 200 {object} util.Response{data=object} "status, total_xp, level"
// @Router /api/gamification/add-xp [post]
func (c *GamificationController) AddXP(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req AddXPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.GamificationService.AddXP(ctx.Request.Context(), userID, req.Amount)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"status":   "success",
		"total_xp": user.XP,
		"level":    user.Level,
	})
}

// AwardBadge godoc
// @Summary 授予徽章
// @Description 重复授予同一徽章不会产生重复记录
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BadgeRequest true "徽章 ID"
// @Success 200 {object} util.Response{data=object} "status, earned_badges"
// @Router /api/gamification/badge [post]
func (c *GamificationController) AwardBadge(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req BadgeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.GamificationService.AwardBadge(ctx.Request.Context(), userID, *req.BadgeID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"status":        "success",
		"earned_badges": user.EarnedBadges,
	})
}

// UpdateProjectStep godoc
// @Summary 更新项目步骤
// @Description 覆盖项目已完成步骤集合，每次调用都会奖励经验值
// @Tags 游戏化
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProjectStepRequest true "项目与已完成步骤"
// @Success 200 {object} util.Response{data=object} "status, project_id, completed_steps"
// @Router /api/gamification/project/step [post]
func (c *GamificationController) UpdateProjectStep(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req ProjectStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	project, err := c.GamificationService.UpdateProjectStep(ctx.Request.Context(), userID, req.ProjectID, req.CompletedSteps)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"status":          "success",
		"project_id":      project.ProjectID,
		"completed_steps": project.CompletedSteps,
	})
}
