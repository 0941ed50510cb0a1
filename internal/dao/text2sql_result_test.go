package dao

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/Malowking/sqlgate/core/config"
	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/runner"
	"github.com/Malowking/sqlgate/nl2sql/service"
)

func strPtr(s string) *string { return &s }

func sampleRun() *service.RunResult {
	started := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return &service.RunResult{
		RunID:       "6f1c1f8e-4c7e-4f7a-9d55-0e2d0c3a9b11",
		StartedAt:   started,
		FinishedAt:  started.Add(time.Minute),
		Providers:   []string{"google", "openai"},
		Unavailable: []string{"qwen"},
		Results: []*runner.QuestionResult{
			{Question: "q1", ModelType: "google", ModelName: "gemini", GroupName: "basic",
				SQL: strPtr("SELECT 1 FROM sportradar_tennis_season"), Admitted: true, Success: true, ResultCount: 3},
			{Question: "q2", ModelType: "google", ModelName: "gemini", GroupName: "basic",
				SQL: strPtr("DELETE FROM sportradar_tennis_season"), Error: strPtr("dangerous operation: DELETE"),
				ErrorKind: "danger", IsDangerous: true, DangerousKeyword: strPtr("DELETE")},
			{Question: "q1", ModelType: "openai", ModelName: "gpt-4o", GroupName: "basic",
				Error: strPtr("no SQL extracted"), ErrorKind: "extraction"},
		},
	}
}

func TestBuildRunRecord(t *testing.T) {
	run := sampleRun()
	record := BuildRunRecord(run, "cases/testcase.json", "cases/test_results.json")

	assert.Equal(t, run.RunID, record.RunID)
	assert.Equal(t, "google,openai", record.Providers)
	assert.Equal(t, "qwen", record.Unavailable)
	assert.Equal(t, 3, record.TotalCount)
	assert.Equal(t, 1, record.SuccessCount)
	assert.Equal(t, 1, record.DangerousCount)
	assert.Equal(t, "cases/test_results.json", record.ReportPath)
}

func TestBuildResultRecords(t *testing.T) {
	run := sampleRun()
	records := BuildResultRecords(run.RunID, run.Results)
	require.Len(t, records, 3)

	for i, r := range records {
		assert.Equal(t, run.RunID, r.RunID)
		assert.Equal(t, i+1, r.Seq)
	}
	assert.Equal(t, "DELETE", *records[1].DangerousKeyword)
	assert.Nil(t, records[2].SQL)
	assert.Equal(t, "no SQL extracted", *records[2].ErrorMessage)
	assert.Equal(t, "extraction", records[2].ErrorKind)

	assert.Empty(t, BuildResultRecords("x", nil))
}

func TestDataSourceConfig(t *testing.T) {
	ds, err := dataSourceConfig(config.ResultStoreConfig{
		Type: "postgres", Host: "db", Port: "", User: "u", Pass: "p", Name: "results",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgresql", ds.Type)
	assert.Equal(t, 5432, ds.Port)
	assert.Equal(t, "p", ds.Password)

	ds, err = dataSourceConfig(config.ResultStoreConfig{Host: "db", Port: "3307", User: "u", Name: "results"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", ds.Type)
	assert.Equal(t, 3307, ds.Port)

	_, err = dataSourceConfig(config.ResultStoreConfig{Type: "mysql", Host: "db"})
	assert.True(t, errors.HasCode(err, errors.ErrDatabaseConnect))
}

func TestSaveRun_NotInitialized(t *testing.T) {
	var store RunStore = &Text2SQLResultDAO{}
	err := store.SaveRun(context.Background(), sampleRun(), "", "")
	assert.True(t, errors.HasCode(err, errors.ErrDatabaseConnect))
}

func TestResultRecords_InsertStatement(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "reader:pw@tcp(127.0.0.1:3306)/results?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)

	run := sampleRun()
	stmt := db.Create(BuildRunRecord(run, "", "")).Statement
	assert.Contains(t, stmt.SQL.String(), "INSERT INTO `text2sql_runs`")

	stmt = db.Create(BuildResultRecords(run.RunID, run.Results)).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "INSERT INTO `text2sql_question_results`")
	assert.Contains(t, sql, "`sql_text`")
	assert.Contains(t, sql, "`dangerous_keyword`")
}
