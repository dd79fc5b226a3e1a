package controller

import (
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	AnalysisService *service.AnalysisService
}

func NewAnalysisController(analysisService *service.AnalysisService) *AnalysisController {
	return &AnalysisController{AnalysisService: analysisService}
}

// SkillGap godoc
// @Summary 技能差距分析
// @Description 比较最新简历与最新职位描述，每次调用生成一条新的分析记录
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.SkillAnalysis}
// @Failure 404 {object} util.Response "缺少简历或职位描述"
// @Router /api/analysis/skill-gap [get]
func (c *AnalysisController) SkillGap(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	analysis, err := c.AnalysisService.RunAnalysis(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, analysis)
}
