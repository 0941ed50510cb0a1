package cmd

import (
	"context"

	"github.com/gogf/gf/v2/os/gcmd"
	"github.com/gogf/gf/v2/util/gconv"

	"github.com/Malowking/sqlgate/nl2sql/common"
)

// Options 命令行参数
type Options struct {
	Testcase    string
	Output      string
	Models      map[string]string // 提供方 -> 覆盖所有测试组的模型
	Concurrency int
	Strict      bool
}

var (
	Main = gcmd.Command{
		Name:  "sqlgate",
		Usage: "sqlgate [-t testcase.json] [-o report.json] [--openai-model NAME] [--google-model NAME] [--qwen-model NAME] [-c N] [--strict]",
		Brief: "run text2sql tests through the SQL safety gateway",
		Arguments: []gcmd.Argument{
			{Name: "testcase", Short: "t", Brief: "test definition file, JSON or YAML (default: testcase.json)"},
			{Name: "output", Short: "o", Brief: "report path (default: test_results.json beside the test definition)"},
			{Name: "openai-model", Brief: "OpenAI model, overrides every test group"},
			{Name: "google-model", Brief: "Google model, overrides every test group"},
			{Name: "qwen-model", Brief: "Qwen model, overrides every test group"},
			{Name: "concurrency", Short: "c", Brief: "tuples executed in parallel (default: run.concurrency)"},
			{Name: "strict", Orphan: true, Brief: "parse SQL to extract table references"},
		},
		Func: func(ctx context.Context, parser *gcmd.Parser) (err error) {
			_, err = Run(ctx, ParseOptions(parser))
			return err
		},
	}
)

// ParseOptions 读取命令行参数，长短参数名都可用
func ParseOptions(parser *gcmd.Parser) Options {
	opts := Options{
		Testcase:    opt(parser, "testcase", "t"),
		Output:      opt(parser, "output", "o"),
		Models:      make(map[string]string),
		Concurrency: gconv.Int(opt(parser, "concurrency", "c")),
		Strict:      parser.GetOpt("strict") != nil,
	}
	if opts.Testcase == "" {
		opts.Testcase = "testcase.json"
	}
	for _, provider := range []string{common.ProviderOpenAI, common.ProviderGoogle, common.ProviderQwen} {
		if name := opt(parser, provider+"-model", ""); name != "" {
			opts.Models[provider] = name
		}
	}
	return opts
}

func opt(parser *gcmd.Parser, name, short string) string {
	if v := parser.GetOpt(name); v != nil && v.String() != "" {
		return v.String()
	}
	if short == "" {
		return ""
	}
	if v := parser.GetOpt(short); v != nil {
		return v.String()
	}
	return ""
}
