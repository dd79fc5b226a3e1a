package util

import "interview_prep_backend/pkg/docparse"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
)

// 简历上传相关常量
const (
	MimePDF         = docparse.MimePDF
	MimeDOCX        = docparse.MimeDOCX
	MimeText        = docparse.MimeText
	MimeZip         = "application/zip"
	MimeOctetStream = "application/octet-stream"

	MaxResumeBytes = 10 << 20
)

var (
	AllowedResumeExtensions = map[string]string{
		".pdf":  MimePDF,
		".docx": MimeDOCX,
		".txt":  MimeText,
	}
)
