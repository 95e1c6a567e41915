// Package timeline は雇用期間から在籍月の集合を組み立てます。
package timeline

import (
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
)

// Set は在籍月の集合です。
type Set map[calendar.YearMonth]struct{}

// Contains は月が集合に含まれるかを返します。
func (s Set) Contains(ym calendar.YearMonth) bool {
	_, ok := s[ym]
	return ok
}

// Len は集合の要素数を返します。
func (s Set) Len() int {
	return len(s)
}

// Build は雇用期間の開始月から終了月までの各月を集合に加えます。
// 終了日のない期間は now の月まで在籍しているものとして扱うため、結果は評価時刻に依存します。
func Build(periods []*period.Period, now time.Time) Set {
	set := make(Set)
	for _, p := range periods {
		if p == nil || p.StartDate.IsZero() {
			continue
		}

		end := now
		if p.EndDate != nil {
			end = *p.EndDate
		}

		last := calendar.Of(end)
		for ym := calendar.Of(p.StartDate); !last.Before(ym); ym = ym.Next() {
			set[ym] = struct{}{}
		}
	}
	return set
}
