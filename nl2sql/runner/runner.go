package runner

import (
	"context"
	stderrors "errors"

	"github.com/gogf/gf/v2/frame/g"

	"github.com/Malowking/sqlgate/core/common"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/core/model"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
	"github.com/Malowking/sqlgate/nl2sql/generator"
	"github.com/Malowking/sqlgate/nl2sql/parser"
)

// Stage 单个问题的处理阶段
type Stage string

const (
	StageGenerating  Stage = "GENERATING"
	StageExtracting  Stage = "EXTRACTING"
	StageClassifying Stage = "CLASSIFYING"
	StageValidating  Stage = "VALIDATING"
	StageExecuting   Stage = "EXECUTING"
	StageDone        Stage = "DONE"
)

// Tuple 一次独立执行的输入
type Tuple struct {
	GroupName  string
	Question   string
	Prompt     string
	Provider   string
	ModelName  string
	SourceID   string
	DataSource *datasource.Config // 为空时执行阶段失败
}

// Runner 问题执行器：生成 -> 提取 -> 危险检测 -> 策略校验 -> 执行
type Runner struct {
	validator *parser.SQLValidator
	registry  *datasource.Registry
}

// New 创建执行器，registry 由编排器持有
func New(policy *parser.Policy, registry *datasource.Registry) *Runner {
	return &Runner{
		validator: parser.NewSQLValidator(policy),
		registry:  registry,
	}
}

// Run 处理一个组合，任何阶段的失败都记录在结果中，不向上返回
func (r *Runner) Run(ctx context.Context, provider model.Provider, t Tuple) *QuestionResult {
	result := &QuestionResult{
		Question:  t.Question,
		Prompt:    t.Prompt,
		ModelType: t.Provider,
		ModelName: t.ModelName,
		GroupName: t.GroupName,
	}

	// GENERATING
	raw, err := r.generate(ctx, provider, t)
	if err != nil {
		return finish(ctx, result, StageGenerating, err)
	}

	// EXTRACTING
	sql, ok := generator.ExtractSQL(raw)
	if !ok {
		return finish(ctx, result, StageExtracting, errors.New(errors.ErrNoSQLExtracted, "no SQL extracted"))
	}
	result.SQL = &sql

	// CLASSIFYING：结果总是记录
	danger := parser.Classify(sql)
	result.IsDangerous = danger.IsDangerous
	if danger.IsDangerous {
		keyword := danger.Keyword
		result.DangerousKeyword = &keyword
		return finish(ctx, result, StageClassifying,
			errors.Newf(errors.ErrDangerousSQL, "dangerous operation: %s", keyword))
	}

	// VALIDATING
	outcome := r.validator.Validate(sql)
	if !outcome.Admitted {
		return finish(ctx, result, StageValidating, errors.New(errors.ErrPolicyRejected, outcome.Reason))
	}
	result.Admitted = true

	// EXECUTING
	count, err := r.execute(ctx, t, sql)
	if err != nil {
		return finish(ctx, result, StageExecuting, err)
	}
	result.Success = true
	result.ResultCount = count
	g.Log().Debugf(ctx, "[Runner] %s/%s [%s] %s: %d rows",
		t.Provider, t.ModelName, t.GroupName, t.Question, count)
	return result
}

func (r *Runner) generate(ctx context.Context, provider model.Provider, t Tuple) (string, error) {
	if provider == nil {
		return "", errors.Newf(errors.ErrProviderUnavailable, "unknown model provider: %s", t.Provider)
	}
	raw, err := callProvider(ctx, provider, t)
	if err == nil {
		return raw, nil
	}
	if errors.IsAppError(err) {
		return "", err
	}
	return "", errors.Wrap(errors.ErrLLMCallFailed, err, "provider call failed")
}

// callProvider 适配器内部 panic 转为 ErrProviderPanic，归入 provider 类错误
func callProvider(ctx context.Context, provider model.Provider, t Tuple) (raw string, err error) {
	completed := false
	defer func() {
		if !completed && err != nil {
			err = errors.Wrap(errors.ErrProviderPanic, err, "provider panicked")
		}
	}()
	defer common.RecoverToError(ctx, "generate "+t.Provider+"/"+t.ModelName, &err)

	raw, err = provider.Generate(ctx, t.Question, t.Prompt, t.ModelName)
	completed = true
	return raw, err
}

func (r *Runner) execute(ctx context.Context, t Tuple, sql string) (int, error) {
	if t.DataSource == nil {
		return 0, errors.New(errors.ErrDataSourceMissing, "no database configuration provided")
	}
	handle, err := r.registry.GetOrCreate(ctx, t.SourceID, t.DataSource)
	if err != nil {
		return 0, err
	}
	rows, err := datasource.Execute(ctx, handle, sql)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, errors.Wrap(errors.ErrTupleTimeout, err, "query timed out")
		}
		return 0, err
	}
	return rows.RowCount(), nil
}

// finish 以错误结束，行数保持为 0
func finish(ctx context.Context, result *QuestionResult, stage Stage, err error) *QuestionResult {
	msg := err.Error()
	result.Error = &msg
	result.ErrorKind = string(errors.KindOf(err))
	result.Success = false
	result.ResultCount = 0
	g.Log().Debugf(ctx, "[Runner] %s/%s [%s] %s: stopped at %s: %s",
		result.ModelType, result.ModelName, result.GroupName, result.Question, stage, msg)
	return result
}
