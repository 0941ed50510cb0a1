package common

// 支持的数据库类型
const (
	DBTypeMySQL      = "mysql"
	DBTypePostgreSQL = "postgresql"
)

// 默认数据源标识（测试组未指定 database_name 时使用）
const DefaultSourceID = "tennis"

// SQL 操作类型（只允许 SELECT）
const (
	SQLOpSelect = "SELECT"
)

// 默认查询限制
const (
	DefaultMaxRows = 50
)

// DefaultAllowedTables 默认允许访问的表
var DefaultAllowedTables = []string{
	"sportradar_tennis_competition",
	"sportradar_tennis_season",
	"sportradar_tennis_competitor",
	"sportradar_tennis_summary_live",
}

// DefaultDisallowedKeywords 策略校验禁用的关键字
var DefaultDisallowedKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "CREATE", "ALTER",
	"TRUNCATE", "GRANT", "REVOKE", "EXEC", "EXECUTE",
}

// DangerousKeywords 危险操作关键字，按检测顺序排列
// 与策略禁用词重叠但不相同（多了 REPLACE）
var DangerousKeywords = []string{
	"DROP", "DELETE", "UPDATE", "INSERT", "CREATE", "ALTER",
	"TRUNCATE", "GRANT", "REVOKE", "EXEC", "EXECUTE", "REPLACE",
}

// 模型提供方标识
const (
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderQwen       = "qwen"
	ProviderCompatible = "compatible"
)

// DefaultProviderOrder 提供方遍历顺序（先 Google 后 OpenAI）
var DefaultProviderOrder = []string{
	ProviderGoogle,
	ProviderOpenAI,
	ProviderQwen,
	ProviderCompatible,
}

// DefaultModels 各提供方的默认模型
var DefaultModels = map[string][]string{
	ProviderOpenAI: {"gpt-4o"},
	ProviderGoogle: {"gemini-2.0-flash-exp"},
}

// 默认测试组名称
const DefaultGroupName = "default"

// 执行状态
const (
	ExecutionStatusSuccess   = "success"
	ExecutionStatusFailed    = "failed"
	ExecutionStatusDangerous = "dangerous"
)
