package service

import (
	"strings"

	"github.com/noah-isme/ai-feedback-api/internal/repository"
)

var submissionSortColumns = map[string]string{
	"id":             "id",
	"createdat":      "created_at",
	"created_at":     "created_at",
	"updatedat":      "updated_at",
	"updated_at":     "updated_at",
	"status":         "status",
	"submittext":     "submit_text",
	"submit_text":    "submit_text",
	"studentid":      "student_id",
	"student_id":     "student_id",
	"componenttype":  "component_type",
	"component_type": "component_type",
}

var revisionSortColumns = map[string]string{
	"id":            "id",
	"createdat":     "created_at",
	"created_at":    "created_at",
	"issuccess":     "is_success",
	"is_success":    "is_success",
	"submissionid":  "submission_id",
	"submission_id": "submission_id",
}

// parseSort resolves "field" or "field,ORDER" against an allow-list.
// Only ASC sorts ascending; any other order sorts descending.
func parseSort(raw string, allowed map[string]string) (column string, desc bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, nil
	}

	field, order, _ := strings.Cut(raw, ",")
	column, ok := allowed[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return "", false, ErrInvalidSortField
	}

	return column, !strings.EqualFold(strings.TrimSpace(order), "ASC"), nil
}

func pageQuery(page, size int, sort string, allowed map[string]string) (repository.PageQuery, error) {
	column, desc, err := parseSort(sort, allowed)
	if err != nil {
		return repository.PageQuery{}, err
	}

	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	return repository.PageQuery{Page: page, Size: size, SortColumn: column, SortDesc: desc}, nil
}
