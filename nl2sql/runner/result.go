package runner

// QuestionResult 单个 (测试组, 提供方, 模型, 问题) 组合的结果，创建后不再修改
type QuestionResult struct {
	Question         string  `json:"question"`
	Prompt           string  `json:"prompt"`
	ModelType        string  `json:"model_type"`
	ModelName        string  `json:"model_name"`
	GroupName        string  `json:"group_name"`
	SQL              *string `json:"sql"`
	Admitted         bool    `json:"admitted"`
	Success          bool    `json:"success"`
	Error            *string `json:"error"`
	ErrorKind        string  `json:"error_kind,omitempty"`
	ResultCount      int     `json:"result_count"`
	IsDangerous      bool    `json:"is_dangerous"`
	DangerousKeyword *string `json:"dangerous_keyword"`
}

// SQLText 生成的 SQL，未提取到时为空串
func (r *QuestionResult) SQLText() string {
	if r.SQL == nil {
		return ""
	}
	return *r.SQL
}

// ErrorText 错误信息，成功时为空串
func (r *QuestionResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// KeywordText 危险关键字
func (r *QuestionResult) KeywordText() string {
	if r.DangerousKeyword == nil {
		return ""
	}
	return *r.DangerousKeyword
}
