package testcase

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogf/gf/v2/os/gfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/generator"
)

const groupedDefinition = `{
  "default_prompt": "Custom default. Database schema: tennis tables",
  "default_openai_model": "gpt-4o-mini",
  "default_google_model": ["gemini-1.5-pro", "gemini-2.0-flash-exp"],
  "database": {
    "tennis": {"host": "10.0.0.5", "user": "reader", "password": "pw", "database": "sportradar"},
    "archive": {"host": "10.0.0.6", "port": "5433", "user": "reader", "password": "pw", "database": "old", "type": "postgres"}
  },
  "policy": {"maxRows": 20},
  "test_groups": [
    {
      "name": "basic",
      "questions": ["How many competitions?", "  ", "List seasons"]
    },
    {
      "name": "custom prompt",
      "prompt": "Answer with MySQL only.",
      "openai_model": ["gpt-4.1", "o3-mini"],
      "google_model": 42,
      "database_name": "archive",
      "questions": ["Who won?"]
    },
    {
      "models": {"qwen": "qwen-max", "openai": "gpt-4o"},
      "database_name": "missing",
      "questions": ["Anything"]
    }
  ]
}`

func TestParse_Grouped(t *testing.T) {
	def, err := Parse([]byte(groupedDefinition))
	require.NoError(t, err)

	assert.Equal(t, "Custom default. Database schema: tennis tables", def.Defaults.Prompt)
	assert.Equal(t, []string{"gpt-4o-mini"}, def.Defaults.Models["openai"])
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-2.0-flash-exp"}, def.Defaults.Models["google"])
	assert.Empty(t, def.Defaults.Models["qwen"])
	require.NotNil(t, def.Policy)
	assert.Equal(t, 20, def.Policy.MaxRows)

	require.Len(t, def.Groups, 3)
	assert.Equal(t, 4, def.TotalQuestions())

	basic := def.Groups[0]
	assert.Equal(t, "basic", basic.Name)
	assert.Equal(t, def.Defaults.Prompt, basic.Prompt)
	assert.Equal(t, []string{"How many competitions?", "List seasons"}, basic.Questions)
	assert.Equal(t, []string{"gpt-4o-mini"}, basic.ModelsFor("openai"))
	assert.Equal(t, "tennis", basic.DatabaseName)
	require.NotNil(t, basic.DataSource)
	assert.Equal(t, "10.0.0.5", basic.DataSource.Host)
	assert.Equal(t, 3306, basic.DataSource.Port)
	assert.Equal(t, "mysql", basic.DataSource.Type)

	custom := def.Groups[1]
	assert.True(t, strings.HasPrefix(custom.Prompt, "Answer with MySQL only."))
	assert.Contains(t, custom.Prompt, generator.SchemaMarker)
	assert.Equal(t, []string{"gpt-4.1", "o3-mini"}, custom.ModelsFor("openai"))
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-2.0-flash-exp"}, custom.ModelsFor("google"))
	require.NotNil(t, custom.DataSource)
	assert.Equal(t, "postgresql", custom.DataSource.Type)
	assert.Equal(t, 5433, custom.DataSource.Port)

	unnamed := def.Groups[2]
	assert.Equal(t, "group-3", unnamed.Name)
	assert.Equal(t, []string{"qwen-max"}, unnamed.ModelsFor("qwen"))
	assert.Equal(t, []string{"gpt-4o"}, unnamed.ModelsFor("openai"))
	assert.Equal(t, "missing", unnamed.DatabaseName)
	assert.Nil(t, unnamed.DataSource)
}

func TestParse_Legacy(t *testing.T) {
	def, err := Parse([]byte(`{"questions": ["q1", "q2"], "default_openai_model": "gpt-4o"}`))
	require.NoError(t, err)

	require.Len(t, def.Groups, 1)
	group := def.Groups[0]
	assert.Equal(t, "default", group.Name)
	assert.Equal(t, generator.DefaultPrompt(), group.Prompt)
	assert.Equal(t, []string{"q1", "q2"}, group.Questions)
	assert.Equal(t, []string{"gpt-4o"}, group.ModelsFor("openai"))
	assert.Equal(t, []string{"gemini-2.0-flash-exp"}, group.ModelsFor("google"))
	assert.Equal(t, "tennis", group.DatabaseName)
	assert.Nil(t, group.DataSource)
}

func TestParse_YAML(t *testing.T) {
	content := `
test_groups:
  - name: yaml group
    google_model: gemini-2.0-flash-exp
    questions:
      - How many players?
`
	def, err := Parse([]byte(content))
	require.NoError(t, err)
	require.Len(t, def.Groups, 1)
	assert.Equal(t, "yaml group", def.Groups[0].Name)
	assert.Equal(t, []string{"How many players?"}, def.Groups[0].Questions)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{"test_groups": [`},
		{"top level list", `["q1"]`},
		{"nothing to run", `{"default_prompt": "x"}`},
		{"groups not a list", `{"test_groups": {"name": "x"}}`},
		{"group not an object", `{"test_groups": ["x"]}`},
		{"questions not a list", `{"test_groups": [{"name": "x", "questions": "q1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrTestcaseInvalid), err.Error())
		})
	}
}

func TestOverrideModel(t *testing.T) {
	def, err := Parse([]byte(groupedDefinition))
	require.NoError(t, err)

	def.OverrideModel("openai", "gpt-5")
	def.OverrideModel("google", "  ")
	for _, group := range def.Groups {
		assert.Equal(t, []string{"gpt-5"}, group.ModelsFor("openai"))
	}
	assert.Equal(t, []string{"gemini-1.5-pro", "gemini-2.0-flash-exp"}, def.Groups[0].ModelsFor("google"))
	assert.Equal(t, []string{"gpt-4o-mini"}, def.Defaults.Models["openai"])
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "testcase.json")
	require.NoError(t, gfile.PutContents(path, groupedDefinition))

	def, err := Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, def.Path)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "absent.json"))
	assert.True(t, errors.HasCode(err, errors.ErrTestcaseInvalid))
}
