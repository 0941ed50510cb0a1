package generator

import (
	"regexp"
	"strings"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

var (
	sqlBlockPattern  = regexp.MustCompile("(?is)```sql\\s*(.*?)\\s*```")
	codeBlockPattern = regexp.MustCompile("(?s)```\\s*(.*?)\\s*```")
)

// ExtractSQL 从模型原始响应中提取 SQL，优先级：
//  1. ```sql 代码块
//  2. 任意以 SELECT 开头的 ``` 代码块
//  3. 响应本身以 SELECT 开头：去掉空行和注释行后以空格拼接
//  4. 响应本身以危险关键字开头（DROP/DELETE/...）：同样按行拼接，交给危险检测记录
//
// 无法识别时返回 ok=false
func ExtractSQL(response string) (sql string, ok bool) {
	if m := sqlBlockPattern.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1]), true
	}

	for _, m := range codeBlockPattern.FindAllStringSubmatch(response, -1) {
		content := strings.TrimSpace(m[1])
		if startsWithSelect(content) {
			return content, true
		}
	}

	trimmed := strings.TrimSpace(response)
	if !startsWithSelect(trimmed) && !startsWithStatementVerb(trimmed) {
		return "", false
	}
	return joinLines(trimmed), true
}

func joinLines(text string) string {
	var sqlLines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}
		sqlLines = append(sqlLines, line)
	}
	return strings.Join(sqlLines, " ")
}

func startsWithSelect(s string) bool {
	return strings.HasPrefix(strings.ToUpper(s), common.SQLOpSelect)
}

func startsWithStatementVerb(s string) bool {
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) == 0 {
		return false
	}
	first := strings.TrimRight(fields[0], ";")
	for _, kw := range common.DangerousKeywords {
		if first == kw {
			return true
		}
	}
	return false
}
