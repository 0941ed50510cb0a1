package dao

import (
	"context"
	"strings"

	"github.com/gogf/gf/v2/frame/g"
	"gorm.io/gorm"

	"github.com/Malowking/sqlgate/core/errors"
	gormModel "github.com/Malowking/sqlgate/internal/model/gorm"
	"github.com/Malowking/sqlgate/nl2sql/runner"
	"github.com/Malowking/sqlgate/nl2sql/service"
)

// RunStore 运行结果持久化
type RunStore interface {
	SaveRun(ctx context.Context, run *service.RunResult, testcasePath, reportPath string) error
}

// Text2SQLResultDAO 运行记录与问题结果的数据访问对象
type Text2SQLResultDAO struct {
	db *gorm.DB
}

// NewText2SQLResultDAO db 为空时使用 InitDB 建立的连接
func NewText2SQLResultDAO(conn *gorm.DB) *Text2SQLResultDAO {
	if conn == nil {
		conn = GetDB()
	}
	return &Text2SQLResultDAO{db: conn}
}

const resultBatchSize = 100

// SaveRun 在一个事务中写入运行记录和全部结果
func (d *Text2SQLResultDAO) SaveRun(ctx context.Context, run *service.RunResult, testcasePath, reportPath string) error {
	if d.db == nil {
		return errors.New(errors.ErrDatabaseConnect, "result store is not initialized")
	}

	record := BuildRunRecord(run, testcasePath, reportPath)
	results := BuildResultRecords(run.RunID, run.Results)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if len(results) == 0 {
			return nil
		}
		return tx.CreateInBatches(results, resultBatchSize).Error
	})
	if err != nil {
		g.Log().Errorf(ctx, "保存运行结果失败: %v", err)
		return errors.Wrap(errors.ErrDatabaseQuery, err, "failed to save run results")
	}
	g.Log().Infof(ctx, "Run %s saved to result store: %d results", run.RunID, len(results))
	return nil
}

// GetRun 根据运行ID获取运行记录
func (d *Text2SQLResultDAO) GetRun(ctx context.Context, runID string) (*gormModel.Text2SQLRun, error) {
	var record gormModel.Text2SQLRun
	if err := d.db.WithContext(ctx).Where("run_id = ?", runID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		g.Log().Errorf(ctx, "查询运行记录失败: %v", err)
		return nil, err
	}
	return &record, nil
}

// ListResults 按遍历顺序获取一次运行的全部结果
func (d *Text2SQLResultDAO) ListResults(ctx context.Context, runID string) ([]*gormModel.Text2SQLQuestionResult, error) {
	var results []*gormModel.Text2SQLQuestionResult
	if err := d.db.WithContext(ctx).Where("run_id = ?", runID).Order("seq ASC").Find(&results).Error; err != nil {
		g.Log().Errorf(ctx, "查询问题结果失败: %v", err)
		return nil, err
	}
	return results, nil
}

// BuildRunRecord 运行记录
func BuildRunRecord(run *service.RunResult, testcasePath, reportPath string) *gormModel.Text2SQLRun {
	record := &gormModel.Text2SQLRun{
		RunID:       run.RunID,
		Testcase:    testcasePath,
		ReportPath:  reportPath,
		Providers:   strings.Join(run.Providers, ","),
		Unavailable: strings.Join(run.Unavailable, ","),
		TotalCount:  len(run.Results),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
	for _, r := range run.Results {
		switch {
		case r.IsDangerous:
			record.DangerousCount++
		case r.Success:
			record.SuccessCount++
		}
	}
	return record
}

// BuildResultRecords 问题结果，Seq 为遍历序号
func BuildResultRecords(runID string, results []*runner.QuestionResult) []*gormModel.Text2SQLQuestionResult {
	records := make([]*gormModel.Text2SQLQuestionResult, 0, len(results))
	for i, r := range results {
		records = append(records, &gormModel.Text2SQLQuestionResult{
			RunID:            runID,
			Seq:              i + 1,
			GroupName:        r.GroupName,
			ModelType:        r.ModelType,
			ModelName:        r.ModelName,
			Question:         r.Question,
			SQL:              r.SQL,
			Admitted:         r.Admitted,
			Success:          r.Success,
			ErrorMessage:     r.Error,
			ErrorKind:        r.ErrorKind,
			ResultCount:      r.ResultCount,
			IsDangerous:      r.IsDangerous,
			DangerousKeyword: r.DangerousKeyword,
		})
	}
	return records
}
