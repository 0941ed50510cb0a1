package testcase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gogf/gf/v2/container/gvar"
	"github.com/gogf/gf/v2/encoding/gjson"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"

	"github.com/Malowking/sqlgate/core/config"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/common"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
	"github.com/Malowking/sqlgate/nl2sql/generator"
)

// KnownProviders 测试定义中可以出现的提供方
var KnownProviders = []string{
	common.ProviderOpenAI,
	common.ProviderGoogle,
	common.ProviderQwen,
	common.ProviderCompatible,
}

// Group 规范化后的测试组，运行期间只读
type Group struct {
	Name         string              `json:"name"`
	Prompt       string              `json:"prompt"`
	Models       map[string][]string `json:"models"`
	Questions    []string            `json:"questions"`
	DatabaseName string              `json:"database_name"`
	DataSource   *datasource.Config  `json:"-"`
}

// ModelsFor 某个提供方在该组中要测试的模型
func (g *Group) ModelsFor(provider string) []string {
	return g.Models[provider]
}

// Defaults 解析后的默认配置
type Defaults struct {
	Prompt string              `json:"prompt"`
	Models map[string][]string `json:"models"`
}

// Definition 一次运行的完整测试定义
type Definition struct {
	Path      string                        `json:"-"`
	Defaults  Defaults                      `json:"defaults"`
	Groups    []*Group                      `json:"test_groups"`
	Databases map[string]*datasource.Config `json:"-"`
	Policy    *config.PolicyConfig          `json:"-"` // 测试定义中的策略覆盖，可为空
}

// TotalQuestions 所有组的问题总数
func (d *Definition) TotalQuestions() int {
	total := 0
	for _, group := range d.Groups {
		total += len(group.Questions)
	}
	return total
}

// OverrideModel 命令行指定的模型覆盖所有组中该提供方的配置
func (d *Definition) OverrideModel(provider, modelName string) {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return
	}
	for _, group := range d.Groups {
		group.Models[provider] = []string{modelName}
	}
}

// Load 读取测试定义文件（JSON 或 YAML）
func Load(ctx context.Context, path string) (*Definition, error) {
	if !gfile.IsFile(path) {
		return nil, errors.Newf(errors.ErrTestcaseInvalid, "test definition not found: %s", path)
	}
	def, err := Parse(gfile.GetBytes(path))
	if err != nil {
		return nil, err
	}
	def.Path = path
	g.Log().Infof(ctx, "Loaded %d test groups with %d questions from %s",
		len(def.Groups), def.TotalQuestions(), path)
	return def, nil
}

// Parse 解析并规范化测试定义，旧版扁平 questions 转为一个默认组
func Parse(content []byte) (*Definition, error) {
	j, err := gjson.LoadContent(content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTestcaseInvalid, err, "malformed test definition")
	}
	if j == nil || !j.Var().IsMap() {
		return nil, errors.New(errors.ErrTestcaseInvalid, "malformed test definition: top level must be an object")
	}

	def := &Definition{
		Defaults: Defaults{
			Prompt: generator.DefaultPrompt(),
			Models: make(map[string][]string, len(KnownProviders)),
		},
		Databases: make(map[string]*datasource.Config),
	}
	if p := j.Get("default_prompt").String(); strings.TrimSpace(p) != "" {
		def.Defaults.Prompt = p
	}
	for _, provider := range KnownProviders {
		def.Defaults.Models[provider] = normalizeModels(j.Get("default_"+provider+"_model"), common.DefaultModels[provider])
	}

	for name, dbJSON := range j.GetJsonMap("database") {
		cfg := &datasource.Config{}
		if err := dbJSON.Scan(cfg); err != nil {
			return nil, errors.Wrap(errors.ErrTestcaseInvalid, err, fmt.Sprintf("invalid database config %q", name))
		}
		cfg.Normalize()
		def.Databases[name] = cfg
	}

	if j.Contains("policy") {
		pc := &config.PolicyConfig{}
		if err := j.Get("policy").Scan(pc); err != nil {
			return nil, errors.Wrap(errors.ErrTestcaseInvalid, err, "invalid policy")
		}
		def.Policy = pc
	}

	switch {
	case j.Contains("test_groups"):
		if !j.Get("test_groups").IsSlice() {
			return nil, errors.New(errors.ErrTestcaseInvalid, "malformed test definition: test_groups must be a list")
		}
		for i, groupJSON := range j.GetJsons("test_groups") {
			group, err := def.parseGroup(i+1, groupJSON)
			if err != nil {
				return nil, err
			}
			def.Groups = append(def.Groups, group)
		}
	case j.Contains("questions"):
		questions, err := parseQuestions(j.Get("questions"))
		if err != nil {
			return nil, err
		}
		def.Groups = []*Group{{
			Name:      common.DefaultGroupName,
			Prompt:    def.Defaults.Prompt,
			Models:    copyModels(def.Defaults.Models),
			Questions: questions,
		}}
		def.attachDataSource(def.Groups[0])
	default:
		return nil, errors.New(errors.ErrTestcaseInvalid, "malformed test definition: no test_groups or questions")
	}

	return def, nil
}

func (d *Definition) parseGroup(index int, j *gjson.Json) (*Group, error) {
	if j == nil || !j.Var().IsMap() {
		return nil, errors.Newf(errors.ErrTestcaseInvalid, "test group #%d must be an object", index)
	}

	group := &Group{
		Name:         strings.TrimSpace(j.Get("name").String()),
		Prompt:       d.Defaults.Prompt,
		Models:       make(map[string][]string, len(KnownProviders)),
		DatabaseName: strings.TrimSpace(j.Get("database_name").String()),
	}
	if group.Name == "" {
		group.Name = fmt.Sprintf("group-%d", index)
	}
	if j.Contains("prompt") {
		group.Prompt = generator.ResolvePrompt(j.Get("prompt").String(), d.Defaults.Prompt)
	}

	models := j.GetJsonMap("models")
	for _, provider := range KnownProviders {
		v := j.Get(provider + "_model")
		if m, ok := models[provider]; ok {
			v = m.Var()
		}
		group.Models[provider] = normalizeModels(v, d.Defaults.Models[provider])
	}

	questions, err := parseQuestions(j.Get("questions"))
	if err != nil {
		return nil, errors.Newf(errors.ErrTestcaseInvalid, "test group %q: %s", group.Name, err.Error())
	}
	group.Questions = questions

	d.attachDataSource(group)
	return group, nil
}

// attachDataSource 未指定 database_name 时使用默认数据源；找不到配置时保持为空
func (d *Definition) attachDataSource(group *Group) {
	if group.DatabaseName == "" {
		group.DatabaseName = common.DefaultSourceID
	}
	group.DataSource = d.Databases[group.DatabaseName]
}

func parseQuestions(v *gvar.Var) ([]string, error) {
	if v == nil || v.IsNil() {
		return []string{}, nil
	}
	if !v.IsSlice() {
		return nil, errors.New(errors.ErrTestcaseInvalid, "questions must be a list")
	}
	questions := make([]string, 0, len(v.Slice()))
	for _, q := range v.Strings() {
		if q = strings.TrimSpace(q); q != "" {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// normalizeModels 字符串转为单元素列表，列表原样保留，其他类型使用默认值
func normalizeModels(v *gvar.Var, def []string) []string {
	if v == nil || v.IsNil() {
		return append([]string{}, def...)
	}
	switch val := v.Val().(type) {
	case string:
		if val = strings.TrimSpace(val); val == "" {
			return append([]string{}, def...)
		}
		return []string{val}
	case []interface{}:
		models := make([]string, 0, len(val))
		for _, m := range v.Strings() {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		return models
	default:
		return append([]string{}, def...)
	}
}

func copyModels(models map[string][]string) map[string][]string {
	cp := make(map[string][]string, len(models))
	for k, v := range models {
		cp[k] = append([]string{}, v...)
	}
	return cp
}
