package controller

import (
	"fmt"
	"io"
	"net/http"

	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResumeController struct {
	ResumeService *service.ResumeService
}

func NewResumeController(resumeService *service.ResumeService) *ResumeController {
	return &ResumeController{ResumeService: resumeService}
}

// swagger:model JobDescriptionRequest
type JobDescriptionRequest struct {
	CompanyName string `json:"company_name"`
	JDText      string `json:"jd_text" binding:"required"`
}

// Upload godoc
// @Summary 上传简历
// @Description 支持 PDF、DOCX、TXT；提取文本后保存原文件
// @Tags 简历
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "简历文件"
// @Success 201 {object} util.Response{data=model.Resume}
// @Failure 400 {object} util.Response "不支持的文件类型"
// @Failure 422 {object} util.Response "无法提取文本"
// @Router /api/resume/upload [post]
func (c *ResumeController) Upload(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}
	if file.Size > util.MaxResumeBytes {
		util.Error(ctx, http.StatusRequestEntityTooLarge, fmt.Sprintf("resume exceeds %d MB", util.MaxResumeBytes>>20))
		return
	}

	f, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, util.MaxResumeBytes))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	resume, err := c.ResumeService.Upload(ctx.Request.Context(), userID, file.Filename, data)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, resume)
}

// Latest godoc
// @Summary 最新简历
// @Tags 简历
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.Resume}
// @Failure 404 {object} util.Response
// @Router /api/resume/latest [get]
func (c *ResumeController) Latest(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	resume, err := c.ResumeService.Latest(ctx.Request.Context(), userID)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Success(ctx, resume)
}

// SaveJobDescription godoc
// @Summary 保存职位描述
// @Tags 分析
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body JobDescriptionRequest true "职位描述"
// @Success 201 {object} util.Response{data=model.JobDescription}
// @Router /api/analysis/jd [post]
func (c *ResumeController) SaveJobDescription(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req JobDescriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	jd, err := c.ResumeService.SaveJobDescription(ctx.Request.Context(), userID, req.CompanyName, req.JDText)
	if err != nil {
		util.HandleServiceError(ctx, err)
		return
	}

	util.Created(ctx, jd)
}
