package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/xwb1989/sqlparser"
)

var (
	ErrNotReadOnly = errors.New("only read queries permitted")
	ErrInvalidSQL  = errors.New("statement could not be parsed")
)

var (
	fromPattern  = regexp.MustCompile(`\bFROM\s+([` + "`" + `"\[\]\w.]+)`)
	joinPattern  = regexp.MustCompile(`\bJOIN\s+([` + "`" + `"\[\]\w.]+)`)
	quotePattern = regexp.MustCompile("[`\"\\[\\]]")

	wordPatterns sync.Map // keyword -> *regexp.Regexp
)

// ContainsWord 整词匹配（大小写不敏感），update_time 不会命中 UPDATE
func ContainsWord(sql, word string) bool {
	return wordPattern(word).MatchString(sql)
}

func wordPattern(word string) *regexp.Regexp {
	word = strings.ToUpper(word)
	if re, ok := wordPatterns.Load(word); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	actual, _ := wordPatterns.LoadOrStore(word, re)
	return actual.(*regexp.Regexp)
}

// ExtractTables 提取 FROM/JOIN 后的表名（大写，去引号，schema.table 取最后一段）
func ExtractTables(sql string) []string {
	sqlUpper := strings.ToUpper(sql)

	var tables []string
	for _, re := range []*regexp.Regexp{fromPattern, joinPattern} {
		for _, m := range re.FindAllStringSubmatch(sqlUpper, -1) {
			if table := cleanTableName(m[1]); table != "" {
				tables = append(tables, table)
			}
		}
	}
	return tables
}

func cleanTableName(ref string) string {
	parts := strings.Split(ref, ".")
	return quotePattern.ReplaceAllString(parts[len(parts)-1], "")
}

// ExtractTablesStrict 使用 sqlparser 解析后收集所有真实表引用（含子查询）
// 列限定符（t.col）不会被当作表名
func ExtractTablesStrict(sql string) ([]string, error) {
	stmt, err := sqlparser.Parse(strings.TrimSuffix(strings.TrimSpace(sql), ";"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSQL, err)
	}

	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union:
	default:
		return nil, ErrNotReadOnly
	}

	var tables []string
	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if aliased, ok := node.(*sqlparser.AliasedTableExpr); ok {
			if name, ok := aliased.Expr.(sqlparser.TableName); ok && !name.IsEmpty() {
				tables = append(tables, strings.ToUpper(name.Name.String()))
			}
		}
		return true, nil
	}, stmt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSQL, err)
	}
	return tables, nil
}

func extractTables(sql string, strict bool) ([]string, error) {
	if strict {
		return ExtractTablesStrict(sql)
	}
	return ExtractTables(sql), nil
}
