package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageQuery describes a validated page window and ordering.
// SortColumn must already be resolved against an allow-list by the caller.
type PageQuery struct {
	Page       int
	Size       int
	SortColumn string
	SortDesc   bool
}

func (q PageQuery) normalized() PageQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 {
		q.Size = 20
	}
	if q.Size > 100 {
		q.Size = 100
	}
	if q.SortColumn == "" {
		q.SortColumn = "created_at"
		q.SortDesc = true
	}
	return q
}

func (q PageQuery) apply(tx *gorm.DB, table string) *gorm.DB {
	q = q.normalized()
	column := clause.Column{Name: q.SortColumn}
	if table != "" {
		column.Table = table
	}
	return tx.
		Order(clause.OrderByColumn{Column: column, Desc: q.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Table: table, Name: "id"}, Desc: q.SortDesc}).
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size)
}
