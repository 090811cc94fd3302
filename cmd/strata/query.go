package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/strata/pkg/archive"
	"github.com/ajitpratap0/strata/pkg/arrowexport"
	"github.com/ajitpratap0/strata/pkg/block"
	"github.com/ajitpratap0/strata/pkg/columnar"
	"github.com/ajitpratap0/strata/pkg/errors"
	"github.com/ajitpratap0/strata/pkg/observability"
	"github.com/ajitpratap0/strata/pkg/predicate"
	"github.com/ajitpratap0/strata/pkg/schema"
)

func (a *app) queryCommand() *cobra.Command {
	var schemaFile, columnList, arrowFile string
	var where []string
	var limit int

	cmd := &cobra.Command{
		Use:   "query <archive>",
		Short: "Select rows from a block archive",
		Long: `Select rows matching every --where condition and print them as JSON lines.
A condition is "column op value" with op one of = != < <= > >= or "in" with
a comma separated value list. The literal null matches null values.

Example:
  strata query --schema schema.yaml --where "name = Bob" --where "score >= 500" block-00001.strata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args[0], schemaFile, where, columnList, arrowFile, limit)
		},
	}
	cmd.Flags().StringVar(&schemaFile, "schema", "", "Path to the YAML schema of the block (required)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "Condition \"column op value\"; repeatable")
	cmd.Flags().StringVar(&columnList, "columns", "", "Comma separated output columns (default all, plus record_id and row_position)")
	cmd.Flags().StringVar(&arrowFile, "arrow", "", "Also write the result as an Arrow IPC file")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum rows to print (0 for all)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, path, schemaFile string, where []string, columnList, arrowFile string, limit int) error {
	s, err := loadSchema(schemaFile)
	if err != nil {
		return err
	}
	ctx, log := operationContext(cmd.Context(), "query", s.Name, path)
	_, span := observability.StartSpan(ctx, "query")
	defer span.End()

	p, err := parseWhere(s, where)
	if err != nil {
		return err
	}
	columns, names, err := parseColumns(s, columnList)
	if err != nil {
		return err
	}

	ro, _, err := archive.ReadFile(path, s, a.blockOptions(log)...)
	if err != nil {
		span.RecordError(err)
		return err
	}
	rows, err := ro.Query(p, columns)
	if err != nil {
		span.RecordError(err)
		return err
	}
	span.SetAttribute("rows", len(rows))
	log.Debug("query resolved", zap.Strings("where", where), zap.Int("rows", len(rows)))

	enc := json.NewEncoder(a.out)
	for i, row := range rows {
		if limit > 0 && i >= limit {
			break
		}
		record := make(map[string]interface{}, len(row))
		for j, v := range row {
			record[names[j]] = v
		}
		if err := enc.Encode(record); err != nil {
			return err
		}
	}

	if arrowFile != "" {
		return writeArrow(ro, p, columns, arrowFile)
	}
	return nil
}

func writeArrow(b block.Block, p predicate.Predicate, columns []int, path string) error {
	rec, err := arrowexport.Query(b, p, columns)
	if err != nil {
		return err
	}
	defer rec.Release()

	f, err := os.Create(path) //nolint:gosec // G304: path comes from a flag
	if err != nil {
		return fmt.Errorf("failed to create arrow file %s: %w", path, err)
	}
	if err := arrowexport.WriteIPC(f, rec); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (a *app) blockOptions(log *zap.Logger) []block.Option {
	return []block.Option{
		block.WithLogger(log),
		block.WithTruncateOptions(block.TruncateOptionsFromConfig(a.cfg.Block)),
	}
}

// resolveColumn maps a column name to its block index and type. The record
// id column sits after the schema columns.
func resolveColumn(s *schema.Schema, name string) (int, schema.Type, error) {
	if name == schema.RecordIDColumn {
		return s.Len(), schema.TypeInt64, nil
	}
	i := s.Index(name)
	if i < 0 {
		return 0, "", errors.Newf(errors.ErrorTypeValidation, "unknown column %q", name).
			WithDetail("schema", s.Name)
	}
	return i, s.Columns[i].Type, nil
}

// parseColumns resolves the --columns list. RowPosition is selected with
// arrowexport.RowPositionField.
func parseColumns(s *schema.Schema, list string) ([]int, []string, error) {
	var names []string
	if strings.TrimSpace(list) == "" {
		for _, c := range s.Columns {
			names = append(names, c.Name)
		}
		names = append(names, schema.RecordIDColumn, arrowexport.RowPositionField)
	} else {
		for _, n := range strings.Split(list, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	}

	columns := make([]int, len(names))
	for i, n := range names {
		if n == arrowexport.RowPositionField {
			columns[i] = block.RowPosition
			continue
		}
		idx, _, err := resolveColumn(s, n)
		if err != nil {
			return nil, nil, err
		}
		columns[i] = idx
	}
	return columns, names, nil
}

// parseWhere folds every condition into a conjunction. No conditions select
// every row.
func parseWhere(s *schema.Schema, conditions []string) (predicate.Predicate, error) {
	var p predicate.Predicate = predicate.AllRows{}
	for _, cond := range conditions {
		leaf, err := parseCondition(s, cond)
		if err != nil {
			return nil, err
		}
		p = predicate.And{Left: p, Right: leaf}
	}
	return p, nil
}

func parseCondition(s *schema.Schema, cond string) (predicate.Predicate, error) {
	fields := strings.Fields(cond)
	if len(fields) < 3 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "condition %q is not \"column op value\"", cond)
	}
	col, typ, err := resolveColumn(s, fields[0])
	if err != nil {
		return nil, err
	}
	literal := strings.Join(fields[2:], " ")

	if strings.EqualFold(fields[1], "in") {
		var values []interface{}
		for _, item := range strings.Split(literal, ",") {
			v, err := parseValue(typ, strings.TrimSpace(item))
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return predicate.MemberOf{Column: col, Values: values}, nil
	}

	op, err := columnar.ParseOperator(fields[1])
	if err != nil {
		return nil, err
	}
	v, err := parseValue(typ, literal)
	if err != nil {
		return nil, err
	}
	return predicate.Compare{Column: col, Op: op, Value: v}, nil
}

// parseValue converts a literal to the filter value type of t.
func parseValue(t schema.Type, literal string) (interface{}, error) {
	if literal == "null" {
		return nil, nil
	}
	switch t.Base() {
	case schema.TypeInt32, schema.TypeInt64:
		v, err := strconv.Atoi(literal)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid integer literal").
				WithDetail("literal", literal)
		}
		return v, nil
	case schema.TypeBool:
		v, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid bool literal").
				WithDetail("literal", literal)
		}
		return v, nil
	default:
		return literal, nil
	}
}
