package parser

import (
	"strings"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

// DangerOutcome 危险操作检测结果
type DangerOutcome struct {
	IsDangerous bool   `json:"is_dangerous"`
	Keyword     string `json:"keyword,omitempty"`
}

// Classify 检测 SQL 是否包含修改类/管理类关键字
// 与 Validate 相互独立，空 SQL 永远不危险
func Classify(sql string) DangerOutcome {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sql))
	if sqlUpper == "" {
		return DangerOutcome{}
	}

	for _, kw := range common.DangerousKeywords {
		if ContainsWord(sqlUpper, kw) {
			return DangerOutcome{IsDangerous: true, Keyword: kw}
		}
	}
	return DangerOutcome{}
}
