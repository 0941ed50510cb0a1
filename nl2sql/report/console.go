package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/Malowking/sqlgate/nl2sql/runner"
	"github.com/Malowking/sqlgate/nl2sql/service"
)

// Console 终端汇总输出
type Console struct {
	out io.Writer
}

// NewConsole 创建终端输出，w 为空时写标准输出
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: w}
}

var (
	titleStyle   = pterm.NewStyle(pterm.FgLightCyan, pterm.Bold)
	warningStyle = pterm.NewStyle(pterm.FgYellow)
	errorStyle   = pterm.NewStyle(pterm.FgRed)
)

// Summary 输出统计表、按组统计以及危险/失败详情
func (c *Console) Summary(run *service.RunResult) error {
	stats := run.Statistics()

	c.println(titleStyle.Sprint("Text2SQL test summary"))
	c.println(fmt.Sprintf("Run: %s  Started: %s  Duration: %s",
		run.RunID, run.StartedAt.Format("2006-01-02 15:04:05"), run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond)))
	if len(run.Unavailable) > 0 {
		c.println(warningStyle.Sprintf("⚠️  Unavailable providers: %s", strings.Join(run.Unavailable, ", ")))
	}
	c.println("")

	if err := c.modelTable(run, stats); err != nil {
		return err
	}

	for _, key := range service.OrderedModels(run.Results) {
		results := service.Filter(run.Results, func(r *runner.QuestionResult) bool {
			return r.ModelType == key.Provider && r.ModelName == key.Model
		})
		groups := service.OrderedGroups(results)
		if len(groups) > 1 {
			if err := c.groupTable(key, groups, stats.ModelGroups[key.Provider][key.Model]); err != nil {
				return err
			}
		}
		if err := c.details(key, results); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) modelTable(run *service.RunResult, stats *service.Statistics) error {
	data := pterm.TableData{{"Provider", "Model", "Total", "Success", "Failed", "Dangerous", "Safe SQL success rate"}}
	for _, key := range service.OrderedModels(run.Results) {
		data = append(data, statsRow(strings.ToUpper(key.Provider), key.Model, stats.Models[key.Provider][key.Model]))
	}
	providers := append(append([]string{}, run.Providers...), run.Unavailable...)
	for _, provider := range providers {
		data = append(data, statsRow(strings.ToUpper(provider), "(all models)", stats.Providers[provider]))
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	c.println(table)
	return nil
}

func (c *Console) groupTable(key service.ModelKey, groups []string, stats map[string]service.Stats) error {
	c.println(titleStyle.Sprintf("%s (%s) by test group", strings.ToUpper(key.Provider), key.Model))
	data := pterm.TableData{{"Group", "Success", "Dangerous", "Rate"}}
	for _, group := range groups {
		s := stats[group]
		data = append(data, []string{
			group,
			fmt.Sprintf("%d/%d", s.Success, s.Total-s.Dangerous),
			strconv.Itoa(s.Dangerous),
			formatRate(s.SuccessRate),
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	c.println(table)
	return nil
}

func (c *Console) details(key service.ModelKey, results []*runner.QuestionResult) error {
	dangerous := service.Filter(results, func(r *runner.QuestionResult) bool { return r.IsDangerous })
	failed := service.Filter(results, func(r *runner.QuestionResult) bool { return !r.IsDangerous && !r.Success })

	if len(dangerous) > 0 {
		c.println(warningStyle.Sprintf("⚠️  %s (%s) dangerous SQL:", strings.ToUpper(key.Provider), key.Model))
		var items []pterm.BulletListItem
		for _, r := range dangerous {
			items = append(items,
				pterm.BulletListItem{Level: 0, Text: fmt.Sprintf("[%s] %s", r.GroupName, r.Question)},
				pterm.BulletListItem{Level: 2, Text: "Operation: " + r.KeywordText()},
				pterm.BulletListItem{Level: 2, Text: "SQL: " + r.SQLText()},
			)
		}
		if err := c.bullets(items); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		c.println(errorStyle.Sprintf("✗ %s (%s) failures (safe SQL):", strings.ToUpper(key.Provider), key.Model))
		var items []pterm.BulletListItem
		for _, r := range failed {
			items = append(items,
				pterm.BulletListItem{Level: 0, Text: fmt.Sprintf("[%s] %s", r.GroupName, r.Question)},
				pterm.BulletListItem{Level: 2, Text: "Error: " + r.ErrorText()},
			)
			if r.SQL != nil {
				items = append(items, pterm.BulletListItem{Level: 2, Text: "SQL: " + r.SQLText()})
			}
		}
		if err := c.bullets(items); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) bullets(items []pterm.BulletListItem) error {
	list, err := pterm.DefaultBulletList.WithItems(items).Srender()
	if err != nil {
		return err
	}
	c.println(list)
	return nil
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

func statsRow(provider, model string, s service.Stats) []string {
	return []string{
		provider,
		model,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Success),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Dangerous),
		formatRate(s.SuccessRate),
	}
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate)
}
