package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pivolan/go_utils"
)

var ErrUnsupportedQuery = errors.New("unsupported query")

// QueryError reports a query that was rejected before execution or failed
// in ClickHouse.
type QueryError struct {
	Query  string
	Reason string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %s", e.Reason)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func unsupported(query, reason string) *QueryError {
	return &QueryError{Query: query, Reason: reason, Err: ErrUnsupportedQuery}
}

// DatasetAlias is the table name users write in queries.
const DatasetAlias = "dataset"

var (
	wordPattern          = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
	aliasPattern         = regexp.MustCompile(`(?i)\b` + DatasetAlias + `\b`)
	tableFunctionPattern = regexp.MustCompile(`(?i)\b(file|url|remote|remotesecure|s3|s3cluster|cluster|mysql|postgresql|jdbc|odbc|hdfs|executable|input|dictionary)\s*\(`)
)

var forbiddenKeywords = []string{
	"insert", "update", "delete", "drop", "alter", "create", "truncate", "rename",
	"attach", "detach", "optimize", "grant", "revoke", "kill", "system", "set",
	"into", "outfile", "exchange", "use",
}

// validateQuery accepts a single SELECT (or WITH ... SELECT) statement that
// reads the stored dataset and rewrites the alias to the real table name.
func validateQuery(query, table string) (string, error) {
	statement := strings.TrimSpace(query)
	statement = strings.TrimSpace(strings.TrimRight(statement, "; \t\n"))
	if statement == "" {
		return "", unsupported(query, "empty query")
	}
	if strings.Contains(statement, ";") {
		return "", unsupported(query, "only a single statement is allowed")
	}

	words := wordPattern.FindAllString(statement, -1)
	if len(words) == 0 {
		return "", unsupported(query, "query must start with SELECT or WITH")
	}
	if first := strings.ToLower(words[0]); first != "select" && first != "with" {
		return "", unsupported(query, fmt.Sprintf("%s statements are not allowed, only SELECT", strings.ToUpper(first)))
	}
	for _, word := range words {
		if go_utils.InArray(strings.ToLower(word), forbiddenKeywords) {
			return "", unsupported(query, fmt.Sprintf("keyword %s is not allowed", strings.ToUpper(word)))
		}
	}
	if tableFunctionPattern.MatchString(statement) {
		return "", unsupported(query, "table functions are not allowed")
	}
	if !aliasPattern.MatchString(statement) {
		return "", unsupported(query, fmt.Sprintf("query must read FROM %s", DatasetAlias))
	}
	return aliasPattern.ReplaceAllLiteralString(statement, quoteIdent(table)), nil
}
