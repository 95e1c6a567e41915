package postgres

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

// whereBuilder は $n プレースホルダを採番しながら WHERE 句を組み立てます。
type whereBuilder struct {
	conditions []string
	args       []any
}

// add は "?" を次のプレースホルダに置き換えた条件を追加します。
func (b *whereBuilder) add(expr string, arg any) {
	b.args = append(b.args, arg)
	b.conditions = append(b.conditions, strings.ReplaceAll(expr, "?", b.placeholder()))
}

func (b *whereBuilder) addRaw(expr string) {
	b.conditions = append(b.conditions, expr)
}

func (b *whereBuilder) placeholder() string {
	return "$" + strconv.Itoa(len(b.args))
}

// next は引数を追加し、そのプレースホルダを返します。
func (b *whereBuilder) next(arg any) string {
	b.args = append(b.args, arg)
	return b.placeholder()
}

func (b *whereBuilder) clause() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return calendar.Date(*value)
}

func nullableString[T ~string](value *T) any {
	if value == nil {
		return nil
	}
	return string(*value)
}

func datePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	d := calendar.Date(value.Time)
	return &d
}

func stringPtr[T ~string](value sql.NullString) *T {
	if !value.Valid {
		return nil
	}
	v := T(value.String)
	return &v
}

func stringSlice[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
