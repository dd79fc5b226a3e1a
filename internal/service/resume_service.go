package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"interview_prep_backend/internal/model"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/docparse"
	"interview_prep_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ResumeService struct {
	ResumeRepo *repository.ResumeRepository
	JDRepo     *repository.JobDescriptionRepository
	Storage    *StorageService
}

func NewResumeService(resumeRepo *repository.ResumeRepository, jdRepo *repository.JobDescriptionRepository, storage *StorageService) *ResumeService {
	return &ResumeService{ResumeRepo: resumeRepo, JDRepo: jdRepo, Storage: storage}
}

// Upload validates the document, extracts its text, keeps the original in
// object storage and records a new resume. The newest resume is the one used
// by analysis.
func (s *ResumeService) Upload(ctx context.Context, userID uint, filename string, data []byte) (*model.Resume, error) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	mime, err := util.DetectResumeType(filename, head)
	if err != nil {
		return nil, err
	}

	text, err := docparse.ExtractText(mime, data)
	if err != nil {
		logger.Log.Info("Resume text extraction failed", zap.String("file", filename), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", util.ErrEmptyDocument, err)
	}
	if text == "" {
		return nil, util.ErrEmptyDocument
	}

	key := fmt.Sprintf("resumes/%d/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), mime)
	if err != nil {
		return nil, fmt.Errorf("store resume: %w", err)
	}

	resume := &model.Resume{
		UserID:      userID,
		FileName:    filepath.Base(filename),
		ContentType: mime,
		ObjectKey:   key,
		FileURL:     url,
		ResumeText:  text,
	}
	if err := s.ResumeRepo.Create(ctx, resume); err != nil {
		// 入库失败时清理已上传的文件
		if delErr := s.Storage.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("Failed to remove orphaned resume object", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return resume, nil
}

func (s *ResumeService) Latest(ctx context.Context, userID uint) (*model.Resume, error) {
	r, err := s.ResumeRepo.FindLatestByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoResume
	}
	return r, err
}

func (s *ResumeService) SaveJobDescription(ctx context.Context, userID uint, company, text string) (*model.JobDescription, error) {
	jd := &model.JobDescription{
		UserID:      userID,
		CompanyName: strings.TrimSpace(company),
		JDText:      strings.TrimSpace(text),
	}
	if err := s.JDRepo.Create(ctx, jd); err != nil {
		return nil, err
	}
	return jd, nil
}

func (s *ResumeService) LatestJobDescription(ctx context.Context, userID uint) (*model.JobDescription, error) {
	jd, err := s.JDRepo.FindLatestByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoJobDescription
	}
	return jd, err
}
