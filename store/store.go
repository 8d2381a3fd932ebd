// Package store keeps datasets in ClickHouse so users can run ad-hoc SELECT
// queries against them. ClickHouse is reached through its MySQL interface.
package store

import (
	"bytes"
	"context"
	"crypto/md5"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pivolan/stats_dashboard/domain/models"
	"github.com/pivolan/stats_dashboard/ingest"
	"github.com/pivolan/stats_dashboard/summary"
)

const (
	batchSize = 5000
	rowColumn = "__row"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func Open(dsn string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	return New(db, log), nil
}

func New(db *gorm.DB, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, logger: log.With("component", "store")}
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save creates a fresh table for d and loads every row into it. The returned
// table name is what Query and Drop expect.
func (s *Store) Save(ctx context.Context, name string, d models.Dataset) (string, error) {
	table := tableName(name, time.Now())
	db := s.db.WithContext(ctx)

	if tx := db.Exec(createTableSQL(table, d)); tx.Error != nil {
		return "", fmt.Errorf("create table %s: %w", table, tx.Error)
	}
	batches, err := insertBatches(table, d)
	if err != nil {
		return "", err
	}
	for _, batch := range batches {
		if tx := db.Exec(batch); tx.Error != nil {
			s.logger.Error("insert failed", "table", table, "error", tx.Error)
			return "", fmt.Errorf("insert into %s: %w", table, tx.Error)
		}
	}
	s.logger.Info("dataset stored", "table", table, "rows", d.Rows(), "columns", len(d.Columns))
	return table, nil
}

// Query runs a user SELECT against table and returns the result as a new
// dataset. The query refers to the stored data as "dataset".
func (s *Store) Query(ctx context.Context, table, query string) (models.Dataset, error) {
	statement, err := validateQuery(query, table)
	if err != nil {
		return models.Dataset{}, err
	}

	rows, err := s.db.WithContext(ctx).Raw(statement).Rows()
	if err != nil {
		s.logger.Warn("query failed", "table", table, "error", err)
		return models.Dataset{}, &QueryError{Query: query, Reason: err.Error(), Err: err}
	}
	defer rows.Close()

	d, err := scanDataset(rows)
	if err != nil {
		return models.Dataset{}, &QueryError{Query: query, Reason: err.Error(), Err: err}
	}
	s.logger.Info("query executed", "table", table, "rows", d.Rows())
	return d, nil
}

func (s *Store) Drop(ctx context.Context, table string) error {
	if tx := s.db.WithContext(ctx).Exec("DROP TABLE IF EXISTS " + quoteIdent(table)); tx.Error != nil {
		return fmt.Errorf("drop table %s: %w", table, tx.Error)
	}
	return nil
}

func getMD5String(input string) string {
	hasher := md5.New()
	hasher.Write([]byte(input))
	return hex.EncodeToString(hasher.Sum(nil))
}

func tableName(name string, now time.Time) string {
	prefix := ingest.CleanName(name)
	if len(prefix) > 40 {
		prefix = prefix[:40]
	}
	if prefix == "" || (prefix[0] >= '0' && prefix[0] <= '9') {
		prefix = "ds_" + prefix
	}
	suffix := getMD5String(name + now.Format(time.RFC3339Nano))[:6]
	return strings.TrimSuffix(prefix, "_") + "_" + suffix
}

func quoteIdent(name string) string {
	r := strings.NewReplacer("\\", "\\\\", "`", "\\`")
	return "`" + r.Replace(name) + "`"
}

func createTableSQL(table string, d models.Dataset) string {
	kinds := summary.ClassifyColumns(d)
	fields := []string{quoteIdent(rowColumn) + " UInt64"}
	for i, name := range storedNames(d) {
		typ := "Nullable(String)"
		if kinds[d.Columns[i].Name] == summary.Numeric {
			typ = "Nullable(Float64)"
		}
		fields = append(fields, quoteIdent(name)+" "+typ)
	}
	return "CREATE TABLE " + quoteIdent(table) + " (" + strings.Join(fields, ", ") +
		") ENGINE = MergeTree ORDER BY " + quoteIdent(rowColumn)
}

// storedNames returns the table column names for d. A column that clashes
// with the row index gets a _N suffix.
func storedNames(d models.Dataset) []string {
	names := ingest.ValidateHeaders(append([]string{rowColumn}, d.Names()...))
	return names[1:]
}

// insertBatches renders the dataset as INSERT ... FORMAT CSV statements of at
// most batchSize rows each. Missing cells are written as \N.
func insertBatches(table string, d models.Dataset) ([]string, error) {
	kinds := summary.ClassifyColumns(d)
	header := "INSERT INTO " + quoteIdent(table) + " FORMAT CSV\n"

	var batches []string
	b := bytes.NewBufferString("")
	w := csv.NewWriter(b)
	record := make([]string, len(d.Columns)+1)
	for i := 0; i < d.Rows(); i++ {
		record[0] = strconv.Itoa(i)
		for j, c := range d.Columns {
			record[j+1] = cellCSV(c.Values[i], kinds[c.Name] == summary.Numeric)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
		if (i+1)%batchSize == 0 {
			w.Flush()
			batches = append(batches, header+b.String())
			b.Reset()
		}
	}
	w.Flush()
	if b.Len() > 0 {
		batches = append(batches, header+b.String())
	}
	return batches, w.Error()
}

func cellCSV(v models.Value, numeric bool) string {
	if v.IsMissing() {
		return `\N`
	}
	if numeric {
		f, _ := v.Float()
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v.String()
}

func scanDataset(rows *sql.Rows) (models.Dataset, error) {
	names, err := rows.Columns()
	if err != nil {
		return models.Dataset{}, err
	}
	keep := make([]int, 0, len(names))
	for i, name := range names {
		if name != rowColumn {
			keep = append(keep, i)
		}
	}
	headers := make([]string, len(keep))
	for k, i := range keep {
		headers[k] = names[i]
	}
	headers = ingest.ValidateHeaders(headers)

	columns := make([]models.Column, len(keep))
	for k := range keep {
		columns[k] = models.Column{Name: headers[k], Values: []models.Value{}}
	}

	raw := make([]interface{}, len(names))
	ptrs := make([]interface{}, len(names))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return models.Dataset{}, err
		}
		for k, i := range keep {
			columns[k].Values = append(columns[k].Values, convertScanned(raw[i]))
		}
	}
	if err := rows.Err(); err != nil {
		return models.Dataset{}, err
	}
	return models.NewDataset(columns...)
}

func convertScanned(v interface{}) models.Value {
	switch x := v.(type) {
	case nil:
		return models.MissingValue()
	case []byte:
		return ingest.ParseCell(string(x))
	case string:
		return ingest.ParseCell(x)
	case int64:
		return models.NumberValue(float64(x))
	case uint64:
		return models.NumberValue(float64(x))
	case float64:
		return models.NumberValue(x)
	case float32:
		return models.NumberValue(float64(x))
	case bool:
		return models.TextValue(strconv.FormatBool(x))
	case time.Time:
		return models.TextValue(x.Format("2006-01-02 15:04:05"))
	}
	return models.TextValue(fmt.Sprint(v))
}
