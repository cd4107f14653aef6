package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// SharedHelpers contains query building shared by the repositories.
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// conn returns tx when the caller runs inside a transaction, otherwise the
// repository's pool, bound to ctx either way.
func (h *SharedHelpers) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return h.db.WithContext(ctx)
}

// ApplyPagination clamps limit to [1, maxPageSize] and ignores negative offsets.
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// ApplySort orders by sortBy when it is whitelisted, otherwise by fallback.
func (h *SharedHelpers) ApplySort(query *gorm.DB, sortBy, sortOrder, fallback string, allowed map[string]bool) *gorm.DB {
	if sortBy == "" || !allowed[sortBy] {
		sortBy = fallback
	}
	order := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		order = "ASC"
	}
	return query.Order(sortBy + " " + order)
}

// Exists reports whether any row of model matches the condition.
func (h *SharedHelpers) Exists(ctx context.Context, tx *gorm.DB, model any, query string, args ...any) (bool, error) {
	var count int64
	err := h.conn(ctx, tx).Model(model).Where(query, args...).Limit(1).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return count > 0, nil
}

// likePattern escapes LIKE wildcards in q and wraps it in %...%.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}
