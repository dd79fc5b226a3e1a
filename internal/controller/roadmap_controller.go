package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RoadmapController struct {
	RoadmapService *service.RoadmapService
}

func NewRoadmapController(roadmapService *service.RoadmapService) *RoadmapController {
	return &RoadmapController{RoadmapService: roadmapService}
}

// GetRoadmap godoc
// @Summary 学习路线
// @Description 按最新分析生成并缓存学习路线与练手项目
// @Tags 路线
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.RoadmapView}
// @Failure 404 {object} util.Response "尚未进行技能分析"
// @Router /api/roadmap/ [get]
func (c *RoadmapController) GetRoadmap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	view, err := c.RoadmapService.GetRoadmap(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, view)
}
