package service

import (
	"math"

	"github.com/Malowking/sqlgate/nl2sql/runner"
)

// Stats 一组结果的统计，全部由结果推导
type Stats struct {
	Total       int     `json:"total"`
	Success     int     `json:"success"`
	Failed      int     `json:"failed"` // 不含危险 SQL
	Dangerous   int     `json:"dangerous"`
	SuccessRate float64 `json:"success_rate"` // 安全 SQL 成功率（百分比，两位小数）
}

// Compute 统计结果：成功率 = 成功数 / (总数 - 危险数)，分母为 0 时为 0
func Compute(results []*runner.QuestionResult) Stats {
	var s Stats
	for _, r := range results {
		s.Total++
		switch {
		case r.IsDangerous:
			s.Dangerous++
		case r.Success:
			s.Success++
		}
	}
	safe := s.Total - s.Dangerous
	s.Failed = safe - s.Success
	if safe > 0 {
		s.SuccessRate = math.Round(float64(s.Success)/float64(safe)*10000) / 100
	}
	return s
}

// Statistics 运行结束后按不同维度重新计算的统计
type Statistics struct {
	Models      map[string]map[string]Stats            `json:"models"`       // 提供方 -> 模型
	Providers   map[string]Stats                       `json:"providers"`    // 提供方（所有模型）
	Groups      map[string]Stats                       `json:"groups"`       // 测试组
	ModelGroups map[string]map[string]map[string]Stats `json:"model_groups"` // 提供方 -> 模型 -> 测试组
}

// BuildStatistics 从完整结果集计算统计；extraProviders 中没有结果的提供方记为全 0
func BuildStatistics(results []*runner.QuestionResult, extraProviders ...string) *Statistics {
	byModel := make(map[string]map[string][]*runner.QuestionResult)
	byProvider := make(map[string][]*runner.QuestionResult)
	byGroup := make(map[string][]*runner.QuestionResult)
	byModelGroup := make(map[string]map[string]map[string][]*runner.QuestionResult)

	for _, r := range results {
		if byModel[r.ModelType] == nil {
			byModel[r.ModelType] = make(map[string][]*runner.QuestionResult)
			byModelGroup[r.ModelType] = make(map[string]map[string][]*runner.QuestionResult)
		}
		byModel[r.ModelType][r.ModelName] = append(byModel[r.ModelType][r.ModelName], r)
		byProvider[r.ModelType] = append(byProvider[r.ModelType], r)
		byGroup[r.GroupName] = append(byGroup[r.GroupName], r)

		if byModelGroup[r.ModelType][r.ModelName] == nil {
			byModelGroup[r.ModelType][r.ModelName] = make(map[string][]*runner.QuestionResult)
		}
		byModelGroup[r.ModelType][r.ModelName][r.GroupName] = append(byModelGroup[r.ModelType][r.ModelName][r.GroupName], r)
	}

	stats := &Statistics{
		Models:      make(map[string]map[string]Stats, len(byModel)),
		Providers:   make(map[string]Stats, len(byProvider)),
		Groups:      make(map[string]Stats, len(byGroup)),
		ModelGroups: make(map[string]map[string]map[string]Stats, len(byModelGroup)),
	}
	for provider, models := range byModel {
		stats.Models[provider] = make(map[string]Stats, len(models))
		stats.ModelGroups[provider] = make(map[string]map[string]Stats, len(models))
		for name, rs := range models {
			stats.Models[provider][name] = Compute(rs)
			stats.ModelGroups[provider][name] = make(map[string]Stats)
			for group, grs := range byModelGroup[provider][name] {
				stats.ModelGroups[provider][name][group] = Compute(grs)
			}
		}
	}
	for provider, rs := range byProvider {
		stats.Providers[provider] = Compute(rs)
	}
	for group, rs := range byGroup {
		stats.Groups[group] = Compute(rs)
	}
	for _, provider := range extraProviders {
		if _, ok := stats.Providers[provider]; !ok {
			stats.Providers[provider] = Stats{}
			stats.Models[provider] = map[string]Stats{}
		}
	}
	return stats
}

// ModelKey 提供方 + 模型
type ModelKey struct {
	Provider string
	Model    string
}

// OrderedModels 按结果首次出现的顺序返回 (提供方, 模型)
func OrderedModels(results []*runner.QuestionResult) []ModelKey {
	seen := make(map[ModelKey]bool)
	var keys []ModelKey
	for _, r := range results {
		k := ModelKey{Provider: r.ModelType, Model: r.ModelName}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// OrderedGroups 按结果首次出现的顺序返回测试组
func OrderedGroups(results []*runner.QuestionResult) []string {
	seen := make(map[string]bool)
	var groups []string
	for _, r := range results {
		if !seen[r.GroupName] {
			seen[r.GroupName] = true
			groups = append(groups, r.GroupName)
		}
	}
	return groups
}

// Filter 返回满足条件的结果，保持原有顺序
func Filter(results []*runner.QuestionResult, keep func(*runner.QuestionResult) bool) []*runner.QuestionResult {
	var out []*runner.QuestionResult
	for _, r := range results {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
