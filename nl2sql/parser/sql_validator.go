package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

var (
	ErrEmptyAllowedTables = errors.New("policy must allow at least one table")
	ErrInvalidMaxRows     = errors.New("policy max rows must be greater than 0")
)

// LIMIT n / LIMIT offset, n
var limitPattern = regexp.MustCompile(`\bLIMIT\s+(\d+)(?:\s*,\s*(\d+))?`)

// Policy 只读查询策略，创建后不可修改
type Policy struct {
	allowedTables      map[string]struct{}
	disallowedKeywords []string
	maxRows            int
	strict             bool
}

// NewPolicy 创建策略，表名与关键字大小写不敏感
func NewPolicy(allowedTables, disallowedKeywords []string, maxRows int) (*Policy, error) {
	p := &Policy{
		allowedTables: make(map[string]struct{}, len(allowedTables)),
		maxRows:       maxRows,
	}
	for _, table := range allowedTables {
		table = strings.ToUpper(strings.TrimSpace(table))
		if table != "" {
			p.allowedTables[table] = struct{}{}
		}
	}
	if len(p.allowedTables) == 0 {
		return nil, ErrEmptyAllowedTables
	}
	if maxRows <= 0 {
		return nil, ErrInvalidMaxRows
	}

	seen := make(map[string]bool, len(disallowedKeywords))
	for _, kw := range disallowedKeywords {
		kw = strings.ToUpper(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		p.disallowedKeywords = append(p.disallowedKeywords, kw)
	}
	return p, nil
}

// DefaultPolicy 返回网球库默认策略
func DefaultPolicy() *Policy {
	p, _ := NewPolicy(common.DefaultAllowedTables, common.DefaultDisallowedKeywords, common.DefaultMaxRows)
	return p
}

// WithStrict 返回启用/关闭严格表名解析的策略副本
func (p *Policy) WithStrict(strict bool) *Policy {
	cp := *p
	cp.strict = strict
	return &cp
}

// AllowsTable 判断表名（任意大小写）是否在白名单内
func (p *Policy) AllowsTable(table string) bool {
	_, ok := p.allowedTables[strings.ToUpper(table)]
	return ok
}

// MaxRows 最大允许的 LIMIT 值
func (p *Policy) MaxRows() int { return p.maxRows }

// Strict 是否使用 SQL 解析器提取表名
func (p *Policy) Strict() bool { return p.strict }

// DisallowedKeywords 禁用关键字（大写，按配置顺序）
func (p *Policy) DisallowedKeywords() []string {
	return append([]string(nil), p.disallowedKeywords...)
}

// AllowedTables 白名单表（大写，无序）
func (p *Policy) AllowedTables() []string {
	tables := make([]string, 0, len(p.allowedTables))
	for t := range p.allowedTables {
		tables = append(tables, t)
	}
	return tables
}

// Outcome 策略校验结果
type Outcome struct {
	Admitted bool   `json:"admitted"`
	Reason   string `json:"reason,omitempty"`
}

func reject(format string, args ...interface{}) Outcome {
	return Outcome{Admitted: false, Reason: fmt.Sprintf(format, args...)}
}

// SQLValidator SQL校验器
type SQLValidator struct {
	policy *Policy
}

// NewSQLValidator 创建SQL校验器
func NewSQLValidator(policy *Policy) *SQLValidator {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &SQLValidator{policy: policy}
}

// Policy 返回校验器使用的策略
func (v *SQLValidator) Policy() *Policy {
	return v.policy
}

// Validate 按顺序执行规则，第一条失败即返回
func (v *SQLValidator) Validate(sql string) Outcome {
	return Validate(sql, v.policy)
}

// Validate 校验 SQL 是否满足策略
//  1. 必须以 SELECT 开头
//  2. FROM/JOIN 引用的表必须在白名单内
//  3. 不得以整词形式出现禁用关键字
//  4. 必须包含 LIMIT 且不超过上限
func Validate(sql string, policy *Policy) Outcome {
	sqlUpper := strings.ToUpper(strings.TrimSpace(sql))

	if !strings.HasPrefix(sqlUpper, common.SQLOpSelect) {
		return reject("only read queries permitted")
	}

	tables, err := extractTables(sql, policy.strict)
	if err != nil {
		return reject("%v", err)
	}
	for _, table := range tables {
		if !policy.AllowsTable(table) {
			return reject("access to table `%s` is not allowed", table)
		}
	}

	for _, kw := range policy.disallowedKeywords {
		if ContainsWord(sqlUpper, kw) {
			return reject("keyword `%s` is not allowed", kw)
		}
	}

	m := limitPattern.FindStringSubmatch(sqlUpper)
	if m == nil {
		return reject("query must include a LIMIT clause")
	}
	limit, err := strconv.Atoi(rowCount(m, policy.strict))
	if err != nil || limit > policy.maxRows {
		return reject("LIMIT value must not exceed %d", policy.maxRows)
	}

	return Outcome{Admitted: true}
}

// rowCount 默认取 LIMIT 后第一个数；严格模式下 LIMIT a, b 取真正的行数 b
func rowCount(m []string, strict bool) string {
	if strict && m[2] != "" {
		return m[2]
	}
	return m[1]
}
