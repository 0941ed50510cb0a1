package report

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gogf/gf/v2/frame/g"
	"github.com/gogf/gf/v2/os/gfile"

	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/runner"
	"github.com/Malowking/sqlgate/nl2sql/service"
	"github.com/Malowking/sqlgate/nl2sql/testcase"
)

// DefaultFileName 未指定输出路径时，报告写在测试定义旁边
const DefaultFileName = "test_results.json"

// 键有序、不转义 HTML，相同输入得到相同字节
var jsonAPI = sonic.Config{
	SortMapKeys: true,
}.Froze()

// Report 一次运行的持久化记录，除 test_time 外只由输入和模型响应决定
// run_id 只写入结果库与归档路径
type Report struct {
	TestTime             string                                         `json:"test_time"`
	TestGroups           []*testcase.Group                              `json:"test_groups"`
	Defaults             testcase.Defaults                              `json:"defaults"`
	Results              map[string]map[string][]*runner.QuestionResult `json:"results"`
	ResultsFlat          map[string][]*runner.QuestionResult            `json:"results_flat"`
	Statistics           *service.Statistics                            `json:"statistics"`
	UnavailableProviders []string                                       `json:"unavailable_providers"`
}

// Build 根据测试定义和运行结果组装报告
func Build(def *testcase.Definition, run *service.RunResult) *Report {
	unavailable := make([]string, len(run.Unavailable))
	copy(unavailable, run.Unavailable)

	groups := def.Groups
	if groups == nil {
		groups = []*testcase.Group{}
	}

	return &Report{
		TestTime:             run.StartedAt.Format(time.RFC3339),
		TestGroups:           groups,
		Defaults:             def.Defaults,
		Results:              run.ByProvider(),
		ResultsFlat:          run.Flat(),
		Statistics:           run.Statistics(),
		UnavailableProviders: unavailable,
	}
}

// OutputPath 解析报告路径
func OutputPath(def *testcase.Definition, output string) string {
	if output != "" {
		return output
	}
	if def == nil || def.Path == "" {
		return DefaultFileName
	}
	return filepath.Join(gfile.Dir(def.Path), DefaultFileName)
}

// Encode 缩进格式的 JSON
func Encode(r *Report) ([]byte, error) {
	data, err := jsonAPI.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to encode report")
	}
	return data, nil
}

// Write 编码并写入报告
func Write(ctx context.Context, path string, r *Report) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}
	if err = gfile.PutBytes(path, data); err != nil {
		return errors.Wrap(errors.ErrReportFailed, err, "failed to write report "+path)
	}
	g.Log().Infof(ctx, "Detailed results saved to: %s", path)
	return nil
}

// Read 读取已写入的报告
func Read(path string) (*Report, error) {
	if !gfile.IsFile(path) {
		return nil, errors.Newf(errors.ErrReportFailed, "report not found: %s", path)
	}
	var r Report
	if err := jsonAPI.Unmarshal(gfile.GetBytes(path), &r); err != nil {
		return nil, errors.Wrap(errors.ErrReportFailed, err, "failed to decode report")
	}
	return &r, nil
}
