package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CoachController struct {
	CoachService *service.CoachService
}

func NewCoachController(coachService *service.CoachService) *CoachController {
	return &CoachController{CoachService: coachService}
}

type CoachChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat godoc
// @Summary 面试教练对话
// @Tags 教练
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CoachChatRequest true "消息"
// @Success 200 {object} util.Response{data=model.CoachReply}
// @Failure 502 {object} util.Response "AI 服务不可用"
// @Router /api/coach/chat [post]
func (c *CoachController) Chat(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CoachChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	reply, err := c.CoachService.Chat(ctx.Request.Context(), userID, req.Message)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, reply)
}

// Reset godoc
// @Summary 清空教练对话
// @Tags 教练
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/coach/session [delete]
func (c *CoachController) Reset(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.CoachService.Reset(ctx.Request.Context(), userID); err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"status": "success"})
}
