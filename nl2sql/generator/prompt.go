package generator

import (
	"fmt"
	"strings"
)

// SchemaMarker 提示词中包含该标记时认为已经带有表结构说明
const SchemaMarker = "Database schema"

// SchemaMarkers 可识别的表结构标记，中文提示词沿用 "数据库表结构"
var SchemaMarkers = []string{SchemaMarker, "数据库表结构"}

// DefaultSQLGenerationPrompt 默认 SQL 生成提示词（不含表结构）
const DefaultSQLGenerationPrompt = `You are a professional tennis data query assistant. Your job is to:

1. Understand questions about tennis competitions, players, head-to-head results and statistics.
2. Translate the natural-language question into an efficient, safe SQL query (it must contain LIMIT, no more than 50).
3. Return only the SQL statement, without any explanation.
`

// DatabaseSchemaPrompt 表结构说明，追加到自定义提示词之后
const DatabaseSchemaPrompt = `
**Database schema**:

### 1. sportradar_tennis_competition (competition metadata)
- id varchar PK, e.g. sr:competition:XXXXX
- name varchar, full competition name
- type varchar, singles / doubles / team or level such as Grand Slam, ATP 1000, Challenger
- gender varchar, men / women / mixed (lower case)
- category_id varchar, e.g. sr:category:XXXX
- category_name varchar, e.g. ITF Men, ATP Tour, WTA Tour, Grand Slams

### 2. sportradar_tennis_season (season instances)
- id varchar PK, e.g. sr:season:XXXXXX
- name varchar, e.g. "ITF Argentina F7, Men Singles 2022"
- start_date / end_date varchar, ISO 8601 date
- competition_id varchar FK -> sportradar_tennis_competition.id

### 3. sportradar_tennis_competitor (competitors per season)
- id varchar, e.g. sr:competitor:XXXXXX; PK (id, season_id)
- name, short_name, abbreviation varchar
- players text, JSON array of {id, name, country, country_code, abbreviation}
- season_id varchar FK -> sportradar_tennis_season.id

### 4. sportradar_tennis_summary_live (live match summaries)
- sport_event_id varchar PK, e.g. sr:sport_event:64653806
- sport_event_start_time varchar, ISO 8601 UTC
- sport_event_competition_id / sport_event_competition_name / sport_event_competition_type / sport_event_competition_gender
- sport_event_season_id / sport_event_season_name / sport_event_season_year
- sport_event_round_name varchar, sport_event_round_number int
- sport_event_competitors text, JSON array with qualifier home/away
- sport_event_venue text JSON, sport_event_status text JSON (status, match_status, period_scores)
- statistics_totals text JSON (aces, breakpoints_won, ...)

**Constraints**:
- Always use LIMIT (20 or fewer recommended).
- Write operations are forbidden.
- Return only the SQL statement.
`

// DefaultPrompt 默认提示词 + 表结构
func DefaultPrompt() string {
	return DefaultSQLGenerationPrompt + DatabaseSchemaPrompt
}

// ResolvePrompt 组提示词为空时使用默认值；自定义提示词缺少表结构时自动追加
func ResolvePrompt(groupPrompt, defaultPrompt string) string {
	if strings.TrimSpace(groupPrompt) == "" {
		return defaultPrompt
	}
	if !HasSchema(groupPrompt) {
		return groupPrompt + DatabaseSchemaPrompt
	}
	return groupPrompt
}

// HasSchema 提示词是否已带表结构说明
func HasSchema(prompt string) bool {
	for _, marker := range SchemaMarkers {
		if strings.Contains(prompt, marker) {
			return true
		}
	}
	return false
}

// ComposePrompt 单轮输入的提供方（无 system 角色）使用的完整提示词
func ComposePrompt(prompt, question string) string {
	return fmt.Sprintf("%s\n\nUser question: %s\n\nReturn only the SQL statement:", prompt, question)
}
