package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gogf/gf/v2/frame/g"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Malowking/sqlgate/core/common"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/core/model"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
	"github.com/Malowking/sqlgate/nl2sql/parser"
	"github.com/Malowking/sqlgate/nl2sql/runner"
	"github.com/Malowking/sqlgate/nl2sql/testcase"
)

// Options 编排参数
type Options struct {
	Concurrency  int           // 同时执行的组合数，<=1 时顺序执行
	TupleTimeout time.Duration // 单个组合超时，0 表示不限制
}

// Orchestrator 遍历 测试组 × 提供方 × 模型 × 问题，收集结果
type Orchestrator struct {
	providers *model.ProviderRegistry
	registry  *datasource.Registry
	runner    *runner.Runner
	opts      Options
}

// NewOrchestrator 创建编排器；连接注册表由编排器持有并传给执行器
func NewOrchestrator(providers *model.ProviderRegistry, registry *datasource.Registry, policy *parser.Policy, opts Options) *Orchestrator {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Orchestrator{
		providers: providers,
		registry:  registry,
		runner:    runner.New(policy, registry),
		opts:      opts,
	}
}

// RunResult 一次运行的全部结果
type RunResult struct {
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Providers   []string                 // 参与运行的提供方，按遍历顺序
	Unavailable []string                 // 运行环境中不可用的提供方
	Results     []*runner.QuestionResult // 按遍历顺序排列，与执行先后无关
}

// Statistics 根据当前结果重新计算统计
func (r *RunResult) Statistics() *Statistics {
	return BuildStatistics(r.Results, r.Unavailable...)
}

// ByProvider 按 提供方 -> 模型 分组的结果
func (r *RunResult) ByProvider() map[string]map[string][]*runner.QuestionResult {
	nested := make(map[string]map[string][]*runner.QuestionResult)
	for _, provider := range r.Providers {
		nested[provider] = make(map[string][]*runner.QuestionResult)
	}
	for _, provider := range r.Unavailable {
		nested[provider] = make(map[string][]*runner.QuestionResult)
	}
	for _, res := range r.Results {
		if nested[res.ModelType] == nil {
			nested[res.ModelType] = make(map[string][]*runner.QuestionResult)
		}
		nested[res.ModelType][res.ModelName] = append(nested[res.ModelType][res.ModelName], res)
	}
	return nested
}

// Flat 按提供方展开的结果
func (r *RunResult) Flat() map[string][]*runner.QuestionResult {
	flat := make(map[string][]*runner.QuestionResult)
	for _, provider := range r.Providers {
		flat[provider] = []*runner.QuestionResult{}
	}
	for _, provider := range r.Unavailable {
		flat[provider] = []*runner.QuestionResult{}
	}
	for _, res := range r.Results {
		flat[res.ModelType] = append(flat[res.ModelType], res)
	}
	return flat
}

type job struct {
	index int
	tuple runner.Tuple
	// 在所属 (组, 提供方, 模型) 中的位置，仅用于日志
	pos, count int
}

// Run 执行全部组合；单个组合的失败只记录在结果中，不会中断运行
func (o *Orchestrator) Run(ctx context.Context, def *testcase.Definition) (*RunResult, error) {
	if def == nil {
		return nil, errors.New(errors.ErrTestcaseInvalid, "no test definition")
	}

	result := &RunResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	available := make(map[string]model.Provider)
	for _, name := range o.providers.Names() {
		p, _ := o.providers.Get(name)
		if p.Available() {
			available[name] = p
			result.Providers = append(result.Providers, name)
		} else {
			result.Unavailable = append(result.Unavailable, name)
			g.Log().Warningf(ctx, "Provider %s is not available, skipped for all test groups", name)
		}
	}
	if len(available) == 0 {
		g.Log().Warning(ctx, "No usable model provider, every statistic will be zero")
	}

	jobs := o.plan(def, result.Providers)
	result.Results = make([]*runner.QuestionResult, len(jobs))
	g.Log().Infof(ctx, "Run %s: %d test groups, %d questions, %d tuples, concurrency %d",
		result.RunID, len(def.Groups), def.TotalQuestions(), len(jobs), o.opts.Concurrency)

	eg := &errgroup.Group{}
	eg.SetLimit(o.opts.Concurrency)
	for _, j := range jobs {
		eg.Go(func() error {
			result.Results[j.index] = o.runTuple(ctx, available[j.tuple.Provider], j)
			return nil
		})
	}
	_ = eg.Wait()

	result.FinishedAt = time.Now()
	g.Log().Infof(ctx, "Run %s finished in %s", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return result, nil
}

// plan 按 组 -> 提供方 -> 模型 -> 问题 的顺序展开组合
func (o *Orchestrator) plan(def *testcase.Definition, providers []string) []job {
	var jobs []job
	for _, group := range def.Groups {
		for _, provider := range providers {
			for _, modelName := range group.ModelsFor(provider) {
				for i, question := range group.Questions {
					jobs = append(jobs, job{
						index: len(jobs),
						tuple: runner.Tuple{
							GroupName:  group.Name,
							Question:   question,
							Prompt:     group.Prompt,
							Provider:   provider,
							ModelName:  modelName,
							SourceID:   group.DatabaseName,
							DataSource: group.DataSource,
						},
						pos:   i + 1,
						count: len(group.Questions),
					})
				}
			}
		}
	}
	return jobs
}

func (o *Orchestrator) runTuple(ctx context.Context, provider model.Provider, j job) *runner.QuestionResult {
	t := j.tuple
	if o.opts.TupleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.TupleTimeout)
		defer cancel()
	}

	var (
		res *runner.QuestionResult
		err error
	)
	func() {
		defer common.RecoverToError(ctx, "tuple "+t.Provider+"/"+t.ModelName, &err)
		res = o.runner.Run(ctx, provider, t)
	}()
	if err != nil {
		msg := err.Error()
		res = &runner.QuestionResult{
			Question:  t.Question,
			Prompt:    t.Prompt,
			ModelType: t.Provider,
			ModelName: t.ModelName,
			GroupName: t.GroupName,
			Error:     &msg,
			ErrorKind: string(errors.KindInternal),
		}
	}

	logTuple(ctx, j, res)
	return res
}

func logTuple(ctx context.Context, j job, res *runner.QuestionResult) {
	t := j.tuple
	prefix := fmt.Sprintf("[%s] %s (%s) [%d/%d] %s", t.GroupName, t.Provider, t.ModelName, j.pos, j.count, t.Question)
	switch {
	case res.IsDangerous:
		g.Log().Warningf(ctx, "%s\n    ⚠️  dangerous SQL: %s\n    SQL: %s", prefix, res.KeywordText(), res.SQLText())
	case res.Success:
		g.Log().Infof(ctx, "%s\n    ✓ %d rows\n    SQL: %s", prefix, res.ResultCount, res.SQLText())
	default:
		g.Log().Infof(ctx, "%s\n    ✗ %s\n    SQL: %s", prefix, res.ErrorText(), res.SQLText())
	}
}
