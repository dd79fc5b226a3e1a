package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnsupportedFileType = errors.New("only PDF, DOCX or TXT resumes are accepted")
	ErrEmptyDocument       = errors.New("could not extract text from the document")

	// ErrPreconditionFailed 前置资源缺失，客户端需要先完成上一步
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrNoResume           = precondition("Upload a resume first")
	ErrNoJobDescription   = precondition("Upload a job description first")
	ErrNoAnalysis         = precondition("Run a skill-gap analysis first (POST /api/analysis/jd then GET /api/analysis/skill-gap)")

	ErrInvalidXPAmount     = errors.New("xp amount must be between 1 and 1000000")
	ErrTestSessionNotFound = errors.New("test session not found or already checked")
	ErrExternalService     = errors.New("external service failure")
)

// PreconditionError carries a client-facing remedy and matches ErrPreconditionFailed.
type PreconditionError struct {
	Remedy string
}

func (e *PreconditionError) Error() string { return e.Remedy }

func (e *PreconditionError) Is(target error) bool { return target == ErrPreconditionFailed }

func precondition(remedy string) error {
	return &PreconditionError{Remedy: remedy}
}
