package cmd

import (
	"context"
	"path/filepath"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/Malowking/sqlgate/core/config"
	"github.com/Malowking/sqlgate/core/file_store"
	"github.com/Malowking/sqlgate/core/model"
	"github.com/Malowking/sqlgate/internal/dao"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
	"github.com/Malowking/sqlgate/nl2sql/parser"
	"github.com/Malowking/sqlgate/nl2sql/report"
	"github.com/Malowking/sqlgate/nl2sql/service"
	"github.com/Malowking/sqlgate/nl2sql/testcase"
)

// Run 加载测试定义、执行全部组合并输出报告
// 只有测试定义、策略和报告写入失败会返回错误
func Run(ctx context.Context, opts Options) (*service.RunResult, error) {
	config.LoadDotEnv(ctx, ".env", filepath.Join(filepath.Dir(opts.Testcase), ".env"))

	def, err := testcase.Load(ctx, opts.Testcase)
	if err != nil {
		return nil, err
	}
	for provider, modelName := range opts.Models {
		def.OverrideModel(provider, modelName)
	}

	providers := initProviders(ctx)
	policy, err := initPolicy(ctx, def, opts.Strict)
	if err != nil {
		return nil, err
	}

	runCfg := config.Run(ctx)
	if opts.Concurrency > 0 {
		runCfg.Concurrency = opts.Concurrency
	}

	registry := datasource.NewRegistry(nil)
	defer registry.CloseAll(ctx)

	orchestrator := service.NewOrchestrator(providers, registry, policy, service.Options{
		Concurrency:  runCfg.Concurrency,
		TupleTimeout: runCfg.TupleTimeout,
	})
	result, err := orchestrator.Run(ctx, def)
	if err != nil {
		return nil, err
	}

	reportCfg := config.Report(ctx)
	output := opts.Output
	if output == "" {
		output = reportCfg.Output
	}
	reportPath := report.OutputPath(def, output)
	if err = report.Write(ctx, reportPath, report.Build(def, result)); err != nil {
		return result, err
	}

	if err = report.NewConsole(nil).Summary(result); err != nil {
		g.Log().Warningf(ctx, "Failed to render summary: %v", err)
	}

	archiveReport(ctx, reportCfg.Upload, result, reportPath)
	persistRun(ctx, config.ResultStore(ctx), result, opts.Testcase, reportPath)
	return result, nil
}

// initProviders 读取提供方配置并检查 API Key，缺失只输出警告
func initProviders(ctx context.Context) *model.ProviderRegistry {
	order := config.ProviderOrder(ctx)
	configs := config.ProviderConfigs(ctx, order)
	config.ValidateConfiguration(ctx, order, configs)

	return model.BuildRegistry(ctx, order, configs)
}

// initPolicy 测试定义中的策略优先于配置文件，--strict 总是生效
func initPolicy(ctx context.Context, def *testcase.Definition, strict bool) (*parser.Policy, error) {
	policyCfg := config.Policy(ctx)
	if def.Policy != nil {
		policyCfg = *def.Policy
		g.Log().Info(ctx, "Using policy from test definition")
	}
	if strict {
		policyCfg.Strict = true
	}
	return policyCfg.Build()
}

// archiveReport 上传报告，失败不影响本次运行
func archiveReport(ctx context.Context, cfg config.UploadConfig, result *service.RunResult, reportPath string) {
	store, err := file_store.InitStorage(ctx, cfg)
	if err != nil {
		g.Log().Warningf(ctx, "Report storage unavailable: %v", err)
		return
	}
	if store == nil {
		return
	}
	key := file_store.ReportKey(result.RunID, result.StartedAt, reportPath)
	if _, err = store.Upload(ctx, reportPath, key); err != nil {
		g.Log().Warningf(ctx, "Report upload failed: %v", err)
	}
}

// persistRun 写入结果库，失败不影响本次运行
func persistRun(ctx context.Context, cfg config.ResultStoreConfig, result *service.RunResult, testcasePath, reportPath string) {
	if !cfg.Enabled {
		return
	}
	if err := dao.InitDB(ctx, cfg); err != nil {
		g.Log().Warningf(ctx, "Result store unavailable: %v", err)
		return
	}
	defer func() {
		if err := dao.CloseDB(); err != nil {
			g.Log().Warningf(ctx, "Failed to close result store: %v", err)
		}
	}()

	var store dao.RunStore = dao.NewText2SQLResultDAO(nil)
	if err := store.SaveRun(ctx, result, testcasePath, reportPath); err != nil {
		g.Log().Warningf(ctx, "Failed to save run %s: %v", result.RunID, err)
	}
}
