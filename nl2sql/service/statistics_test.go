package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malowking/sqlgate/nl2sql/runner"
)

func res(provider, modelName, group string, success, dangerous bool) *runner.QuestionResult {
	r := &runner.QuestionResult{
		ModelType:   provider,
		ModelName:   modelName,
		GroupName:   group,
		Success:     success,
		IsDangerous: dangerous,
	}
	if success {
		r.ResultCount = 1
	}
	return r
}

func TestCompute(t *testing.T) {
	t.Run("ten results two dangerous six successful", func(t *testing.T) {
		var results []*runner.QuestionResult
		for i := 0; i < 2; i++ {
			results = append(results, res("openai", "gpt-4o", "g", false, true))
		}
		for i := 0; i < 6; i++ {
			results = append(results, res("openai", "gpt-4o", "g", true, false))
		}
		for i := 0; i < 2; i++ {
			results = append(results, res("openai", "gpt-4o", "g", false, false))
		}

		s := Compute(results)
		assert.Equal(t, Stats{Total: 10, Success: 6, Failed: 2, Dangerous: 2, SuccessRate: 75}, s)
	})

	t.Run("all dangerous", func(t *testing.T) {
		results := []*runner.QuestionResult{
			res("google", "m", "g", false, true),
			res("google", "m", "g", false, true),
		}
		s := Compute(results)
		assert.Equal(t, 0.0, s.SuccessRate)
		assert.Equal(t, 0, s.Failed)
		assert.Equal(t, 2, s.Dangerous)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, Stats{}, Compute(nil))
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		results := []*runner.QuestionResult{
			res("openai", "m", "g", true, false),
			res("openai", "m", "g", false, false),
			res("openai", "m", "g", false, false),
		}
		assert.Equal(t, 33.33, Compute(results).SuccessRate)
	})
}

func TestBuildStatistics(t *testing.T) {
	results := []*runner.QuestionResult{
		res("google", "gemini", "basic", true, false),
		res("google", "gemini", "advanced", false, true),
		res("openai", "gpt-4o", "basic", true, false),
		res("openai", "gpt-4o", "basic", false, false),
		res("openai", "o3-mini", "advanced", true, false),
	}

	stats := BuildStatistics(results, "qwen", "openai")

	assert.Equal(t, Stats{Total: 2, Success: 1, Dangerous: 1, SuccessRate: 100}, stats.Models["google"]["gemini"])
	assert.Equal(t, Stats{Total: 2, Success: 1, Failed: 1, SuccessRate: 50}, stats.Models["openai"]["gpt-4o"])
	assert.Equal(t, Stats{Total: 3, Success: 2, Failed: 1, SuccessRate: 66.67}, stats.Providers["openai"])
	assert.Equal(t, Stats{Total: 3, Success: 2, Failed: 1, SuccessRate: 66.67}, stats.Groups["basic"])
	assert.Equal(t, Stats{Total: 2, Success: 1, Dangerous: 1, SuccessRate: 100}, stats.Groups["advanced"])
	assert.Equal(t, 1, stats.ModelGroups["google"]["gemini"]["advanced"].Dangerous)

	require.Contains(t, stats.Providers, "qwen")
	assert.Equal(t, Stats{}, stats.Providers["qwen"])
	assert.Empty(t, stats.Models["qwen"])
}

func TestBuildStatistics_OrderIndependent(t *testing.T) {
	results := []*runner.QuestionResult{
		res("openai", "a", "g1", true, false),
		res("openai", "b", "g2", false, true),
		res("google", "c", "g1", false, false),
	}
	reversed := []*runner.QuestionResult{results[2], results[1], results[0]}

	assert.Equal(t, BuildStatistics(results), BuildStatistics(reversed))
}

func TestOrdered(t *testing.T) {
	results := []*runner.QuestionResult{
		res("google", "gemini", "g1", true, false),
		res("google", "gemini", "g2", true, false),
		res("openai", "gpt-4o", "g1", true, false),
		res("google", "gemini", "g1", true, false),
	}
	assert.Equal(t, []ModelKey{{"google", "gemini"}, {"openai", "gpt-4o"}}, OrderedModels(results))
	assert.Equal(t, []string{"g1", "g2"}, OrderedGroups(results))
	assert.Len(t, Filter(results, func(r *runner.QuestionResult) bool { return r.ModelType == "google" }), 3)
}
