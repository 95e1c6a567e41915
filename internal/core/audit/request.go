package audit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
)

// Field は監査対象の項目です。
type Field string

const (
	FieldMissing  Field = "missing"
	FieldUnsigned Field = "unsigned"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 200
)

// Request は給与明細監査の入力です。
type Request struct {
	SelectedFields []Field
	// Apafa は外部資金による雇用かどうかの絞り込みです ("si" / "no" / 空)。
	Apafa string
	// Tracking は勤怠追跡対象かどうかの絞り込みです ("si" / "no" / 空)。
	Tracking   string
	Employment worker.Employment
	Time       TimeRange
	Page       int
	Limit      int
}

// TimeRange は監査する月と年の組み合わせです。評価対象は両者の直積です。
type TimeRange struct {
	Months []int
	Years  []int
}

// criteria は検証・正規化済みのリクエストです。
type criteria struct {
	missing  bool
	unsigned bool
	filter   worker.Filter
	pairs    []calendar.YearMonth
	page     int
	limit    int
}

func (r Request) normalize() (criteria, error) {
	var c criteria

	if len(r.SelectedFields) == 0 {
		return c, ErrEmptySelectedFields
	}
	for _, f := range r.SelectedFields {
		switch Field(strings.ToLower(strings.TrimSpace(string(f)))) {
		case FieldMissing:
			c.missing = true
		case FieldUnsigned:
			c.unsigned = true
		default:
			return c, fmt.Errorf("%w: %q", ErrInvalidSelectedField, f)
		}
	}

	employment := worker.Employment(strings.ToLower(strings.TrimSpace(string(r.Employment))))
	switch employment {
	case worker.EmploymentActive, worker.EmploymentInactive, worker.EmploymentAll:
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidEmployment, r.Employment)
	}

	funded, err := parseYesNo(r.Apafa, ErrInvalidApafa)
	if err != nil {
		return c, err
	}
	tracked, err := parseYesNo(r.Tracking, ErrInvalidTracking)
	if err != nil {
		return c, err
	}
	c.filter = worker.Filter{Employment: employment, ExternallyFunded: funded, Tracked: tracked}

	pairs, err := expandTime(r.Time)
	if err != nil {
		return c, err
	}
	c.pairs = pairs

	c.page, c.limit, err = normalizePaging(r.Page, r.Limit)
	if err != nil {
		return c, err
	}
	return c, nil
}

func parseYesNo(raw string, invalid error) (*bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return nil, nil
	case "si":
		v := true
		return &v, nil
	case "no":
		v := false
		return &v, nil
	default:
		return nil, fmt.Errorf("%w: %q", invalid, raw)
	}
}

func expandTime(t TimeRange) ([]calendar.YearMonth, error) {
	if len(t.Months) == 0 || len(t.Years) == 0 {
		return nil, ErrInvalidTime
	}
	for _, m := range t.Months {
		if m < 1 || m > 12 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidMonth, m)
		}
	}
	for _, y := range t.Years {
		if y <= 0 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidYear, y)
		}
	}

	seen := make(map[calendar.YearMonth]struct{}, len(t.Months)*len(t.Years))
	pairs := make([]calendar.YearMonth, 0, len(t.Months)*len(t.Years))
	for _, y := range t.Years {
		for _, m := range t.Months {
			ym := calendar.YearMonth{Year: y, Month: m}
			if _, ok := seen[ym]; ok {
				continue
			}
			seen[ym] = struct{}{}
			pairs = append(pairs, ym)
		}
	}
	// 除外休職に当たった時点で従業員ごと除外されるため、評価順を並べ替えても結果は変わりません。
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Before(pairs[j]) })
	return pairs, nil
}

func normalizePaging(page, limit int) (int, int, error) {
	if limit < 0 || limit > maxLimit {
		return 0, 0, ErrInvalidLimit
	}
	if limit == 0 {
		limit = defaultLimit
	}
	if page < 0 {
		return 0, 0, ErrInvalidPage
	}
	if page == 0 {
		page = defaultPage
	}
	// (page-1)*limit がオフセットとして int に収まる範囲に制限します。
	if page-1 > math.MaxInt/limit {
		return 0, 0, ErrInvalidPage
	}
	return page, limit, nil
}
