package errors

// ErrCode 业务错误码类型
type ErrCode int

const (
	// 通用错误 1000-1999
	ErrInvalidParameter ErrCode = 1001 // 参数错误
	ErrInternalError    ErrCode = 1003 // 内部错误
	ErrNotFound         ErrCode = 1004 // 资源未找到
	ErrTestcaseInvalid  ErrCode = 1010 // 测试用例文件无法读取或格式错误
	ErrPolicyInvalid    ErrCode = 1011 // 安全策略配置无效
	ErrReportFailed     ErrCode = 1012 // 报告写入/上传失败

	// 模型提供方 2000-2999
	ErrProviderUnavailable ErrCode = 2001 // 提供方不可用（未注册/未启用）
	ErrProviderCredentials ErrCode = 2002 // 缺少凭证
	ErrLLMCallFailed       ErrCode = 2004 // LLM调用失败
	ErrProviderPanic       ErrCode = 2008 // 适配器内部 panic

	// SQL 提取 3000-3999
	ErrNoSQLExtracted ErrCode = 3001 // 未能从响应中提取SQL

	// 安全检查 4000-4999
	ErrDangerousSQL   ErrCode = 4001 // 危险操作
	ErrPolicyRejected ErrCode = 4002 // 策略拒绝

	// 数据源 5000-5999
	ErrDataSourceMissing ErrCode = 5001 // 未提供数据源配置
	ErrDatabaseConnect   ErrCode = 5002 // 连接失败
	ErrDatabaseQuery     ErrCode = 5003 // 查询执行失败
	ErrTupleTimeout      ErrCode = 5004 // 单个用例超时
)

// Kind 错误类别，写入 Question Result 的 error_kind 字段
type Kind string

const (
	KindConfig     Kind = "config"
	KindProvider   Kind = "provider"
	KindExtraction Kind = "extraction"
	KindDanger     Kind = "danger"
	KindPolicy     Kind = "policy"
	KindExecution  Kind = "execution"
	KindInternal   Kind = "internal"
)

// Kind 返回错误码所属类别
func (e ErrCode) Kind() Kind {
	switch {
	case e >= 1010 && e <= 1999:
		return KindConfig
	case e >= 2000 && e <= 2999:
		return KindProvider
	case e >= 3000 && e <= 3999:
		return KindExtraction
	case e == ErrDangerousSQL:
		return KindDanger
	case e >= 4000 && e <= 4999:
		return KindPolicy
	case e >= 5000 && e <= 5999:
		return KindExecution
	default:
		return KindInternal
	}
}
