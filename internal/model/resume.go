package model

// Resume 用户上传的简历及提取出的纯文本
type Resume struct {
	BaseModel
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	FileName    string `gorm:"size:255" json:"file_name"`
	ContentType string `gorm:"size:100" json:"content_type"`
	ObjectKey   string `gorm:"size:255" json:"-"`
	FileURL     string `gorm:"size:512" json:"file_url,omitempty"`
	ResumeText  string `gorm:"type:text;not null" json:"resume_text"`
}

func (Resume) TableName() string {
	return "resumes"
}

type JobDescription struct {
	BaseModel
	UserID      uint   `gorm:"index;not null" json:"user_id"`
	CompanyName string `gorm:"size:255" json:"company_name,omitempty"`
	JDText      string `gorm:"column:jd_text;type:text;not null" json:"jd_text"`
}

func (JobDescription) TableName() string {
	return "job_descriptions"
}
