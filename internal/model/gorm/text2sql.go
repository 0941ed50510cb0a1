package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Text2SQLRun 一次测试运行
type Text2SQLRun struct {
	RunID          string    `gorm:"primaryKey;type:char(36);column:run_id" json:"run_id"`
	Testcase       string    `gorm:"type:varchar(500);column:testcase" json:"testcase"`       // 测试定义文件路径
	ReportPath     string    `gorm:"type:varchar(500);column:report_path" json:"report_path"` // 报告文件路径
	Providers      string    `gorm:"type:varchar(200);column:providers" json:"providers"`     // 参与运行的提供方，逗号分隔
	Unavailable    string    `gorm:"type:varchar(200);column:unavailable" json:"unavailable"` // 不可用的提供方，逗号分隔
	TotalCount     int       `gorm:"column:total_count" json:"total_count"`
	SuccessCount   int       `gorm:"column:success_count" json:"success_count"`
	DangerousCount int       `gorm:"column:dangerous_count" json:"dangerous_count"`
	StartedAt      time.Time `gorm:"column:started_at" json:"started_at"`
	FinishedAt     time.Time `gorm:"column:finished_at" json:"finished_at"`
	CreateTime     time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
}

// TableName 指定表名
func (Text2SQLRun) TableName() string {
	return "text2sql_runs"
}

// BeforeCreate 创建前自动生成UUID
func (r *Text2SQLRun) BeforeCreate(tx *gorm.DB) error {
	if r.RunID == "" {
		r.RunID = uuid.New().String()
	}
	return nil
}

// Text2SQLQuestionResult 单个组合的结果
type Text2SQLQuestionResult struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	RunID            string    `gorm:"type:char(36);not null;index;column:run_id" json:"run_id"`
	Seq              int       `gorm:"not null;column:seq" json:"seq"` // 在本次运行中的遍历序号
	GroupName        string    `gorm:"type:varchar(200);column:group_name" json:"group_name"`
	ModelType        string    `gorm:"type:varchar(50);not null;column:model_type" json:"model_type"`
	ModelName        string    `gorm:"type:varchar(200);not null;column:model_name" json:"model_name"`
	Question         string    `gorm:"type:text;column:question" json:"question"`
	SQL              *string   `gorm:"type:text;column:sql_text" json:"sql"`
	Admitted         bool      `gorm:"column:admitted" json:"admitted"`
	Success          bool      `gorm:"column:success" json:"success"`
	ErrorMessage     *string   `gorm:"type:text;column:error_message" json:"error"`
	ErrorKind        string    `gorm:"type:varchar(20);column:error_kind" json:"error_kind"`
	ResultCount      int       `gorm:"column:result_count" json:"result_count"`
	IsDangerous      bool      `gorm:"column:is_dangerous" json:"is_dangerous"`
	DangerousKeyword *string   `gorm:"type:varchar(20);column:dangerous_keyword" json:"dangerous_keyword"`
	CreateTime       time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
}

// TableName 指定表名
func (Text2SQLQuestionResult) TableName() string {
	return "text2sql_question_results"
}
