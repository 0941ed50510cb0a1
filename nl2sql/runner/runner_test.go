package runner

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/gogf/gf/v2/container/gmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Malowking/sqlgate/core/errors"
	"github.com/Malowking/sqlgate/nl2sql/datasource"
	"github.com/Malowking/sqlgate/nl2sql/parser"
)

type fakeProvider struct {
	name  string
	reply string
	err   error
	panic bool
	calls int
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return true }
func (p *fakeProvider) Generate(_ context.Context, _, _, _ string) (string, error) {
	p.calls++
	if p.panic {
		panic("sdk exploded")
	}
	return p.reply, p.err
}

type fakeConn struct {
	mu      sync.Mutex
	rows    int
	err     error
	queries []string
}

func (c *fakeConn) Query(_ context.Context, sql string) (*datasource.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, sql)
	if c.err != nil {
		return nil, c.err
	}
	result := &datasource.QueryResult{Columns: []string{"name"}}
	for i := 0; i < c.rows; i++ {
		row := gmap.NewListMap()
		row.Set("name", fmt.Sprintf("competition-%d", i))
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func (c *fakeConn) Close() error { return nil }

type fakeDialer struct {
	conn  *fakeConn
	dials int
}

func (d *fakeDialer) Dial(context.Context, *datasource.Config) (datasource.Conn, error) {
	d.dials++
	return d.conn, nil
}

func newTestRunner(conn *fakeConn) (*Runner, *fakeDialer) {
	dialer := &fakeDialer{conn: conn}
	return New(parser.DefaultPolicy(), datasource.NewRegistry(dialer)), dialer
}

func tennisTuple(question string) Tuple {
	return Tuple{
		GroupName: "basic",
		Question:  question,
		Prompt:    "PROMPT",
		Provider:  "openai",
		ModelName: "gpt-4o",
		SourceID:  "tennis",
		DataSource: &datasource.Config{
			Host: "127.0.0.1", User: "reader", Password: "x", Database: "sportradar",
		},
	}
}

func TestRun_ScenarioA_AdmittedAndExecuted(t *testing.T) {
	conn := &fakeConn{rows: 10}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{name: "openai", reply: "```sql SELECT name FROM sportradar_tennis_competition LIMIT 10```"}

	result := r.Run(context.Background(), provider, tennisTuple("list competitions"))

	assert.True(t, result.Success)
	assert.True(t, result.Admitted)
	assert.False(t, result.IsDangerous)
	assert.Nil(t, result.Error)
	assert.Nil(t, result.DangerousKeyword)
	assert.Equal(t, 10, result.ResultCount)
	assert.Equal(t, "SELECT name FROM sportradar_tennis_competition LIMIT 10", result.SQLText())
	assert.Equal(t, []string{"SELECT name FROM sportradar_tennis_competition LIMIT 10"}, conn.queries)
	assert.Equal(t, 1, dialer.dials)
	assert.Equal(t, "basic", result.GroupName)
	assert.Equal(t, "openai", result.ModelType)
	assert.Equal(t, "gpt-4o", result.ModelName)
	assert.Equal(t, "PROMPT", result.Prompt)
}

func TestRun_ScenarioB_Dangerous(t *testing.T) {
	conn := &fakeConn{rows: 1}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{name: "openai", reply: "DROP TABLE sportradar_tennis_competition;"}

	result := r.Run(context.Background(), provider, tennisTuple("drop it"))

	assert.True(t, result.IsDangerous)
	assert.Equal(t, "DROP", result.KeywordText())
	assert.False(t, result.Success)
	assert.False(t, result.Admitted)
	assert.Equal(t, "dangerous operation: DROP", result.ErrorText())
	assert.Equal(t, string(errors.KindDanger), result.ErrorKind)
	assert.Equal(t, 0, result.ResultCount)
	assert.Empty(t, conn.queries)
	assert.Equal(t, 0, dialer.dials)
}

func TestRun_ScenarioC_PolicyRejected(t *testing.T) {
	conn := &fakeConn{rows: 1}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{name: "openai", reply: "SELECT * FROM secret_table LIMIT 5"}

	result := r.Run(context.Background(), provider, tennisTuple("secrets"))

	assert.False(t, result.IsDangerous)
	assert.False(t, result.Success)
	assert.False(t, result.Admitted)
	assert.Contains(t, result.ErrorText(), "SECRET_TABLE")
	assert.Equal(t, string(errors.KindPolicy), result.ErrorKind)
	assert.Equal(t, "SELECT * FROM secret_table LIMIT 5", result.SQLText())
	assert.Empty(t, conn.queries)
	assert.Equal(t, 0, dialer.dials)
}

func TestRun_ScenarioD_ProviderFailure(t *testing.T) {
	conn := &fakeConn{}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{
		name: "google",
		err:  errors.New(errors.ErrProviderCredentials, "GOOGLE_API_KEY is not set"),
	}

	result := r.Run(context.Background(), provider, tennisTuple("anything"))

	assert.Nil(t, result.SQL)
	assert.Equal(t, "GOOGLE_API_KEY is not set", result.ErrorText())
	assert.Equal(t, string(errors.KindProvider), result.ErrorKind)
	assert.False(t, result.IsDangerous)
	assert.False(t, result.Admitted)
	assert.False(t, result.Success)
	assert.Empty(t, conn.queries)
	assert.Equal(t, 0, dialer.dials)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		provider  *fakeProvider
		conn      *fakeConn
		tuple     func() Tuple
		wantErr   string
		wantKind  errors.Kind
		admitted  bool
		wantQuery bool
	}{
		{
			name:     "plain error from provider",
			provider: &fakeProvider{err: fmt.Errorf("connection reset")},
			conn:     &fakeConn{},
			wantErr:  "provider call failed: connection reset",
			wantKind: errors.KindProvider,
		},
		{
			name:     "provider panic",
			provider: &fakeProvider{panic: true},
			conn:     &fakeConn{},
			wantErr:  "provider panicked: panic in generate openai/gpt-4o: sdk exploded",
			wantKind: errors.KindProvider,
		},
		{
			name:     "no SQL in response",
			provider: &fakeProvider{reply: "I cannot answer that."},
			conn:     &fakeConn{},
			wantErr:  "no SQL extracted",
			wantKind: errors.KindExtraction,
		},
		{
			name:     "missing limit",
			provider: &fakeProvider{reply: "SELECT name FROM sportradar_tennis_season"},
			conn:     &fakeConn{},
			wantErr:  "query must include a LIMIT clause",
			wantKind: errors.KindPolicy,
		},
		{
			name:     "no data source",
			provider: &fakeProvider{reply: "SELECT name FROM sportradar_tennis_season LIMIT 5"},
			conn:     &fakeConn{},
			tuple: func() Tuple {
				tp := tennisTuple("q")
				tp.DataSource = nil
				return tp
			},
			wantErr:  "no database configuration provided",
			wantKind: errors.KindExecution,
			admitted: true,
		},
		{
			name:      "execution failure",
			provider:  &fakeProvider{reply: "SELECT nme FROM sportradar_tennis_season LIMIT 5"},
			conn:      &fakeConn{err: fmt.Errorf("Error 1054: Unknown column 'nme'")},
			wantErr:   "query execution failed: Error 1054: Unknown column 'nme'",
			wantKind:  errors.KindExecution,
			admitted:  true,
			wantQuery: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRunner(tt.conn)
			tuple := tennisTuple("q")
			if tt.tuple != nil {
				tuple = tt.tuple()
			}
			result := r.Run(context.Background(), tt.provider, tuple)

			assert.False(t, result.Success)
			assert.Equal(t, 0, result.ResultCount)
			assert.Equal(t, tt.wantErr, result.ErrorText())
			assert.Equal(t, string(tt.wantKind), result.ErrorKind)
			assert.Equal(t, tt.admitted, result.Admitted)
			assert.Equal(t, tt.wantQuery, len(tt.conn.queries) > 0)
		})
	}
}

func TestRun_ProviderPanicCode(t *testing.T) {
	conn := &fakeConn{}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{panic: true}

	result := r.Run(context.Background(), provider, tennisTuple("q"))
	require.NotNil(t, result.Error)
	assert.Equal(t, string(errors.KindProvider), result.ErrorKind)
	assert.Nil(t, result.SQL)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 0, dialer.dials)

	_, err := callProvider(context.Background(), provider, tennisTuple("q"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrProviderPanic))

	ok := &fakeProvider{reply: "SELECT 1"}
	raw, err := callProvider(context.Background(), ok, tennisTuple("q"))
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", raw)
}

func TestRun_NilProvider(t *testing.T) {
	r, _ := newTestRunner(&fakeConn{})
	result := r.Run(context.Background(), nil, tennisTuple("q"))
	require.NotNil(t, result.Error)
	assert.Equal(t, "unknown model provider: openai", result.ErrorText())
}

func TestRun_ReusesConnection(t *testing.T) {
	conn := &fakeConn{rows: 2}
	r, dialer := newTestRunner(conn)
	provider := &fakeProvider{reply: "SELECT name FROM sportradar_tennis_season LIMIT 2"}

	for i := 0; i < 3; i++ {
		result := r.Run(context.Background(), provider, tennisTuple("q"))
		require.True(t, result.Success)
		assert.Equal(t, 2, result.ResultCount)
	}
	assert.Equal(t, 1, dialer.dials)
	assert.Len(t, conn.queries, 3)
}

func TestRun_StrictPolicy(t *testing.T) {
	conn := &fakeConn{rows: 1}
	dialer := &fakeDialer{conn: conn}
	r := New(parser.DefaultPolicy().WithStrict(true), datasource.NewRegistry(dialer))

	provider := &fakeProvider{reply: "SELECT name FROM sportradar_tennis_season WHERE id IN (SELECT season_id FROM hidden) LIMIT 5"}
	result := r.Run(context.Background(), provider, tennisTuple("q"))
	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorText(), "HIDDEN")
	assert.Empty(t, conn.queries)
}
