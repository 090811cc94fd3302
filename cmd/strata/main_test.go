package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/logger"
	"github.com/ajitpratap0/strata/pkg/predicate"
	"github.com/ajitpratap0/strata/pkg/testutil"
)

type CLITestSuite struct {
	testutil.IntegrationTestSuite
	dir string
}

func TestCLITestSuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (s *CLITestSuite) SetupSuite() {
	s.IntegrationTestSuite.SetupSuite()
	s.dir = filepath.Join(s.TempDir(), "blocks")

	out, err := s.run("bench", "--records", "3000", "--max-block-size", "4096",
		"--compression", "lz4", "--log-level", "error", "--out-dir", s.dir)
	s.Require().NoError(err)

	var report benchReport
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Require().Positive(report.Blocks)
}

func (s *CLITestSuite) run(args ...string) (string, error) {
	var buf bytes.Buffer
	cmd := newRootCommand(&buf)
	cmd.SetArgs(args)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(s.Context())
	return buf.String(), err
}

func (s *CLITestSuite) schemaFile() string { return filepath.Join(s.dir, "schema.yaml") }

func (s *CLITestSuite) firstBlock() string { return filepath.Join(s.dir, "block-00001.strata") }

func (s *CLITestSuite) TestVersion() {
	out, err := s.run("version")
	s.Require().NoError(err)
	s.Contains(out, "Strata v"+version)
}

func (s *CLITestSuite) TestBenchReport() {
	out, err := s.run("bench", "--records", "2000", "--max-block-size", "1024", "--log-level", "error")
	s.Require().NoError(err)

	var report benchReport
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal(2000, report.Records)
	s.Equal(1024, report.MaxBlockSize)
	s.Greater(report.Blocks, 1)
	s.LessOrEqual(report.TotalBytes, report.Blocks*1024)
	s.Greater(report.AverageFill, 0.5)
	s.NotNil(report.Resources)
	s.Empty(report.ArchiveDir)
}

func (s *CLITestSuite) TestBenchConfigFileAndEnv() {
	cfg := s.CreateTempFile("strata.yaml", []byte("block:\n  max_block_size: 2048\nlogging:\n  level: error\n"))
	out, err := s.run("bench", "--records", "500", "--config", cfg)
	s.Require().NoError(err)
	var report benchReport
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal(2048, report.MaxBlockSize)

	bad := s.CreateTempFile("bad.yaml", []byte("block:\n  max_block_size: -1\n"))
	_, err = s.run("bench", "--records", "10", "--config", bad)
	s.Error(err)

	s.T().Setenv("STRATA_BLOCK_MAX_BLOCK_SIZE", "1500")
	out, err = s.run("bench", "--records", "500", "--config", cfg)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal(1500, report.MaxBlockSize)
}

func (s *CLITestSuite) TestInspect() {
	out, err := s.run("inspect", "--schema", s.schemaFile(), s.firstBlock())
	s.Require().NoError(err)

	var report inspectReport
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal("bench", report.Schema)
	s.Require().Len(report.Columns, 5)
	s.Equal("name", report.Columns[0].Name)
	s.Equal("record_id", report.Columns[4].Name)
	s.Equal(report.Header.RecordCount, report.Columns[4].Count)
	s.Zero(report.Columns[4].NullCount)

	out, err = s.run("inspect", s.firstBlock())
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal([]byte(out), &report))
	s.Equal("column_4", report.Columns[4].Name)

	_, err = s.run("inspect", filepath.Join(s.dir, "missing.strata"))
	s.Error(err)
}

func (s *CLITestSuite) TestQuery() {
	out, err := s.run("query", "--schema", s.schemaFile(),
		"--where", "record_id < 10", "--columns", "record_id,name,row_position", s.firstBlock())
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	s.Require().Len(lines, 10)
	for i, line := range lines {
		var row map[string]interface{}
		s.Require().NoError(json.Unmarshal([]byte(line), &row))
		s.Equal(float64(i), row["record_id"])
		s.Equal(float64(i), row["row_position"])
		s.Contains(benchNames, row["name"])
	}

	out, err = s.run("query", "--schema", s.schemaFile(),
		"--where", "name in Alice,Bob", "--where", "record_id >= 5", "--limit", "3", s.firstBlock())
	s.Require().NoError(err)
	s.Len(strings.Split(strings.TrimSpace(out), "\n"), 3)
}

func (s *CLITestSuite) TestQueryArrow() {
	path := filepath.Join(s.TempDir(), "result.arrow")
	_, err := s.run("query", "--schema", s.schemaFile(),
		"--where", "score = null", "--arrow", path, s.firstBlock())
	s.Require().NoError(err)

	info, err := os.Stat(path)
	s.Require().NoError(err)
	s.Positive(info.Size())
}

func (s *CLITestSuite) TestQueryErrors() {
	cases := [][]string{
		{"--where", "missing = 1"},
		{"--where", "score ~ 1"},
		{"--where", "score = abc"},
		{"--where", "active = maybe"},
		{"--where", "name"},
		{"--columns", "nope"},
	}
	for _, args := range cases {
		args = append([]string{"query", "--schema", s.schemaFile()}, args...)
		_, err := s.run(append(args, s.firstBlock())...)
		s.Error(err, strings.Join(args, " "))
	}

	_, err := s.run("query", s.firstBlock())
	s.Error(err)
}

func TestOperationContext(t *testing.T) {
	ctx, log := operationContext(context.Background(), "query", "events", "events.strata")
	require.NotNil(t, log)
	assert.Equal(t, "query", ctx.Value(logger.OperationKey))
	assert.Equal(t, "events", ctx.Value(logger.TableKey))
	assert.Equal(t, "events.strata", ctx.Value(logger.BlockKey))

	ctx, log = operationContext(context.TODO(), "bench", "", "")
	require.NotNil(t, log)
	assert.Equal(t, "bench", ctx.Value(logger.OperationKey))
	assert.Nil(t, ctx.Value(logger.TableKey))
	assert.Nil(t, ctx.Value(logger.BlockKey))
}

func TestParseCondition(t *testing.T) {
	s := benchSchema()

	p, err := parseCondition(s, "score >= 10")
	require.NoError(t, err)
	assert.Equal(t, predicate.Compare{Column: 1, Op: columnar.GreaterOrEqual, Value: 10}, p)

	p, err = parseCondition(s, "name = Mary Ann")
	require.NoError(t, err)
	assert.Equal(t, predicate.Compare{Column: 0, Op: columnar.Equal, Value: "Mary Ann"}, p)

	p, err = parseCondition(s, "active IN true, false")
	require.NoError(t, err)
	assert.Equal(t, predicate.MemberOf{Column: 2, Values: []interface{}{true, false}}, p)

	p, err = parseCondition(s, "record_id != null")
	require.NoError(t, err)
	assert.Equal(t, predicate.Compare{Column: 4, Op: columnar.NotEqual, Value: nil}, p)

	all, err := parseWhere(s, nil)
	require.NoError(t, err)
	assert.Equal(t, predicate.AllRows{}, all)
}
