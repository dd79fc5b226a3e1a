package controller

import (
	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// swagger:model GenerateTestRequest
type GenerateTestRequest struct {
	SkillName    string `json:"skill_name" binding:"required"`
	NumQuestions *int   `json:"num_questions" binding:"omitempty,min=1,max=20"`
}

// swagger:model CheckTestRequest
type CheckTestRequest struct {
	TestID    string                  `json:"test_id" binding:"required"`
	SkillName string                  `json:"skill_name"`
	Answers   []model.SubmittedAnswer `json:"answers"`
}

// GenerateTest godoc
// @Summary 生成模拟测试
// @Description 返回的题目不包含正确答案；答案保存在服务端直到提交
// @Tags 测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GenerateTestRequest true "技能与题目数量 (默认 5, 最多 20)"
// @Success 200 {object} util.Response{data=model.GeneratedTest}
// @Failure 400 {object} util.Response
// @Router /api/test/generate [post]
func (c *TestController) GenerateTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req GenerateTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	n := service.DefaultQuestionCount
	if req.NumQuestions != nil {
		n = *req.NumQuestions
	}

	test, err := c.TestService.Generate(ctx.Request.Context(), userID, req.SkillName, n)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, test)
}

// CheckTest godoc
// @Summary 提交并批改测试
// @Description 每个测试只能提交一次；再次提交返回 404
// @Tags 测试
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CheckTestRequest true "答案"
// @Success 200 {object} util.Response{data=model.TestCheckResult}
// @Failure 404 {object} util.Response "测试不存在或已提交"
// @Router /api/test/check [post]
func (c *TestController) CheckTest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req CheckTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.TestService.Check(ctx.Request.Context(), userID, req.TestID, req.SkillName, req.Answers)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// History godoc
// @Summary 测试历史
// @Tags 测试
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.TestResult}
// @Router /api/test/history [get]
func (c *TestController) History(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	results, err := c.TestService.History(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}
	if results == nil {
		results = []model.TestResult{}
	}

	util.Success(ctx, results)
}
