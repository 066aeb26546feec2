// Package option provides composable query options for the generic
// repository.
package option

import (
	"fmt"
	"strings"
	"time"

	"github.com/smallbiznis/facture/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Operator is a SQL comparison operator for filter conditions.
type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// Condition is a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a WHERE clause for the condition.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" {
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
	})
}

// QuerySortBy restricts sorting to an allow-listed set of columns.
type QuerySortBy struct {
	Allow map[string]bool
	Field string
	Desc  bool
}

// WithQuerySortBy builds a QuerySortBy from raw request inputs.
func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		Allow: allow,
		Field: strings.TrimSpace(sortBy),
		Desc:  strings.EqualFold(strings.TrimSpace(orderBy), "desc"),
	}
}

// WithSortBy orders results by the requested column when allowed,
// falling back to created_at descending.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(sort.Field)
		if field == "" || !sort.Allow[field] {
			field = "created_at"
		}
		direction := "ASC"
		if sort.Desc || field == "created_at" {
			direction = "DESC"
		}
		return db.Order(fmt.Sprintf("%s %s", field, direction))
	})
}

// ApplyPagination applies a cursor token and page size. The cursor
// holds the (created_at, id) pair of the last row of the previous page
// and assumes created_at DESC, id DESC ordering. One extra row is
// fetched so the caller can tell whether more pages remain.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(page.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor.ID != "" {
				if createdAt, terr := time.Parse(time.RFC3339Nano, cursor.CreatedAt); terr == nil {
					db = db.Where(
						"created_at < ? OR (created_at = ? AND id < ?)",
						createdAt, createdAt, cursor.ID,
					)
				}
			}
		}
		if page.PageSize > 0 {
			db = db.Limit(page.PageSize + 1)
		}
		// Tie-break rows sharing a created_at so cursors stay stable.
		return db.Order("id DESC")
	})
}

// WithLockForUpdate takes a row lock for the duration of the transaction.
func WithLockForUpdate() QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	})
}
