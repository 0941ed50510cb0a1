package config

import (
	"context"
	"strings"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/genv"

	"github.com/Malowking/sqlgate/core/common"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/core/model"
	nl2sqlCommon "github.com/Malowking/sqlgate/nl2sql/common"
	"github.com/Malowking/sqlgate/nl2sql/parser"
)

// APIKeyEnv 各提供方 API Key 对应的环境变量
var APIKeyEnv = map[string]string{
	nl2sqlCommon.ProviderOpenAI:     "OPENAI_API_KEY",
	nl2sqlCommon.ProviderGoogle:     "GOOGLE_API_KEY",
	nl2sqlCommon.ProviderQwen:       "DASHSCOPE_API_KEY",
	nl2sqlCommon.ProviderCompatible: "COMPATIBLE_API_KEY",
}

// 未配置 enabled 时默认启用的提供方
var enabledByDefault = map[string]bool{
	nl2sqlCommon.ProviderOpenAI: true,
	nl2sqlCommon.ProviderGoogle: true,
}

// RunConfig 运行参数
type RunConfig struct {
	Concurrency  int           // 并行执行的组合数，默认 1（顺序执行）
	TupleTimeout time.Duration // 单个组合的超时时间，0 表示不限制
}

// PolicyConfig 策略配置，空字段使用默认值
type PolicyConfig struct {
	AllowedTables      []string `json:"allowedTables"`
	DisallowedKeywords []string `json:"disallowedKeywords"`
	MaxRows            int      `json:"maxRows"`
	Strict             bool     `json:"strict"`
}

// Build 创建不可变策略
func (c PolicyConfig) Build() (*parser.Policy, error) {
	tables := c.AllowedTables
	if len(tables) == 0 {
		tables = nl2sqlCommon.DefaultAllowedTables
	}
	keywords := c.DisallowedKeywords
	if len(keywords) == 0 {
		keywords = nl2sqlCommon.DefaultDisallowedKeywords
	}
	maxRows := c.MaxRows
	if maxRows == 0 {
		maxRows = nl2sqlCommon.DefaultMaxRows
	}
	policy, err := parser.NewPolicy(tables, keywords, maxRows)
	if err != nil {
		return nil, errors.Wrap(errors.ErrPolicyInvalid, err, "invalid policy")
	}
	return policy.WithStrict(c.Strict), nil
}

// UploadConfig 报告归档：rustfs 为 S3 兼容存储，local 为本地目录
type UploadConfig struct {
	Enabled    bool
	Type       string
	Dir        string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	BucketName string
	SSL        bool
}

// ReportConfig 报告输出
type ReportConfig struct {
	Output string
	Upload UploadConfig
}

// ResultStoreConfig 结果入库配置
type ResultStoreConfig struct {
	Enabled bool
	Type    string
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	Charset string
}

// ProviderOrder 提供方遍历顺序
func ProviderOrder(ctx context.Context) []string {
	order := g.Cfg().MustGet(ctx, "providers.order").Strings()
	if len(order) == 0 {
		return append([]string(nil), nl2sqlCommon.DefaultProviderOrder...)
	}
	normalized := make([]string, 0, len(order))
	for _, name := range order {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			normalized = append(normalized, name)
		}
	}
	return normalized
}

// ProviderConfigs 读取全部提供方配置，API Key 缺省时回退到环境变量
func ProviderConfigs(ctx context.Context, order []string) map[string]model.ProviderConfig {
	configs := make(map[string]model.ProviderConfig, len(order))
	for _, name := range order {
		prefix := "providers." + name
		cfg := model.ProviderConfig{
			Enabled:     g.Cfg().MustGet(ctx, prefix+".enabled", enabledByDefault[name]).Bool(),
			APIKey:      g.Cfg().MustGet(ctx, prefix+".apiKey", "").String(),
			BaseURL:     g.Cfg().MustGet(ctx, prefix+".baseURL", "").String(),
			Temperature: g.Cfg().MustGet(ctx, prefix+".temperature", model.DefaultTemperature).Float32(),
			RPS:         g.Cfg().MustGet(ctx, prefix+".rps", 0).Float64(),
		}
		if cfg.APIKey == "" {
			if env, ok := APIKeyEnv[name]; ok {
				cfg.APIKey = genv.Get(env).String()
			}
		}
		configs[name] = cfg
	}
	return configs
}

// Run 读取运行参数
func Run(ctx context.Context) RunConfig {
	cfg := RunConfig{
		Concurrency:  g.Cfg().MustGet(ctx, "run.concurrency", 1).Int(),
		TupleTimeout: g.Cfg().MustGet(ctx, "run.tupleTimeout", "0s").Duration(),
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}

// Policy 读取策略配置
func Policy(ctx context.Context) PolicyConfig {
	return PolicyConfig{
		AllowedTables:      g.Cfg().MustGet(ctx, "policy.allowedTables").Strings(),
		DisallowedKeywords: g.Cfg().MustGet(ctx, "policy.disallowedKeywords").Strings(),
		MaxRows:            g.Cfg().MustGet(ctx, "policy.maxRows", nl2sqlCommon.DefaultMaxRows).Int(),
		Strict:             g.Cfg().MustGet(ctx, "policy.strict", false).Bool(),
	}
}

// Report 读取报告配置
func Report(ctx context.Context) ReportConfig {
	return ReportConfig{
		Output: g.Cfg().MustGet(ctx, "report.output", "").String(),
		Upload: UploadConfig{
			Enabled:    g.Cfg().MustGet(ctx, "report.upload.enabled", false).Bool(),
			Type:       g.Cfg().MustGet(ctx, "report.upload.type", "rustfs").String(),
			Dir:        g.Cfg().MustGet(ctx, "report.upload.dir", "upload/reports").String(),
			Endpoint:   g.Cfg().MustGet(ctx, "report.upload.endpoint", "").String(),
			AccessKey:  g.Cfg().MustGet(ctx, "report.upload.accessKey", "").String(),
			SecretKey:  g.Cfg().MustGet(ctx, "report.upload.secretKey", "").String(),
			BucketName: g.Cfg().MustGet(ctx, "report.upload.bucketName", "text2sql-reports").String(),
			SSL:        g.Cfg().MustGet(ctx, "report.upload.ssl", false).Bool(),
		},
	}
}

// ResultStore 读取结果入库配置
func ResultStore(ctx context.Context) ResultStoreConfig {
	return ResultStoreConfig{
		Enabled: g.Cfg().MustGet(ctx, "resultStore.enabled", false).Bool(),
		Type:    g.Cfg().MustGet(ctx, "resultStore.type", "mysql").String(),
		Host:    g.Cfg().MustGet(ctx, "resultStore.host", "127.0.0.1").String(),
		Port:    g.Cfg().MustGet(ctx, "resultStore.port", "3306").String(),
		User:    g.Cfg().MustGet(ctx, "resultStore.user", "").String(),
		Pass:    g.Cfg().MustGet(ctx, "resultStore.pass", "").String(),
		Name:    g.Cfg().MustGet(ctx, "resultStore.name", "").String(),
		Charset: g.Cfg().MustGet(ctx, "resultStore.charset", "utf8mb4").String(),
	}
}

// ValidateConfiguration 检查配置并输出警告，不会中断运行
func ValidateConfiguration(ctx context.Context, order []string, providers map[string]model.ProviderConfig) []string {
	var warnings []string

	for _, name := range order {
		cfg, ok := providers[name]
		if !ok || !cfg.Enabled {
			continue
		}
		if cfg.APIKey == "" {
			warnings = append(warnings, APIKeyEnv[name]+" is not set, "+name+" questions will fail")
		} else {
			g.Log().Debugf(ctx, "Provider %s uses API key %s", name, common.MaskKey(cfg.APIKey))
		}
	}

	rs := ResultStore(ctx)
	if rs.Enabled && (rs.User == "" || rs.Name == "") {
		warnings = append(warnings, "resultStore.user / resultStore.name is not set")
	}
	up := Report(ctx).Upload
	if up.Enabled && up.Type != "local" && (up.Endpoint == "" || up.AccessKey == "") {
		warnings = append(warnings, "report.upload.endpoint / report.upload.accessKey is not set")
	}

	if len(warnings) > 0 {
		g.Log().Warningf(ctx, "Configuration warnings:\n- %s", strings.Join(warnings, "\n- "))
	} else {
		g.Log().Info(ctx, "✓ Configuration check passed")
	}
	return warnings
}
