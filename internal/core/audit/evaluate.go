package audit

import (
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/leave"
	"github.com/ogurasousui/worker-chronology/internal/core/period"
	"github.com/ogurasousui/worker-chronology/internal/core/timeline"
	"github.com/ogurasousui/worker-chronology/internal/core/worker"
)

// WorkerFindings は 1 名分の監査結果です。
type WorkerFindings struct {
	WorkerID          string
	FirstName         string
	LastName          string
	Email             string
	MissingPayrolls   []calendar.YearMonth
	NotSignedPayrolls []calendar.YearMonth
}

// HasFindings は指摘事項が 1 件以上あるかを返します。
func (f WorkerFindings) HasFindings() bool {
	return len(f.MissingPayrolls) > 0 || len(f.NotSignedPayrolls) > 0
}

// evaluation は evaluateWorker に渡す 1 名分の入力です。
type evaluation struct {
	worker  *worker.Worker
	periods []*period.Period
	leaves  []*leave.Leave
}

// evaluateWorker は 1 名分の給与明細を評価します。
// 返り値の bool が false の場合、その従業員は結果に含めません。
//
// 給与明細の対象月は前月の労働に対するものです。労働月が在籍月に含まれない組は評価しません。
// 除外対象の休職が労働月に重なった時点で、その従業員は残りの組を評価せずに除外されます。
func evaluateWorker(in evaluation, c criteria, now time.Time) (WorkerFindings, bool) {
	w := in.worker
	findings := WorkerFindings{
		WorkerID:  string(w.ID),
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
	}
	periods := activePeriods(in.periods)
	if len(periods) == 0 {
		return findings, false
	}

	active := timeline.Build(periods, now)
	payrolls := w.PayrollIndex()

	for _, ym := range c.pairs {
		labor := ym.Previous()
		if !active.Contains(labor) {
			continue
		}
		if coveredByLeave(in.leaves, labor) {
			return findings, false
		}

		entry, ok := payrolls[ym]
		switch {
		case !ok:
			if c.missing {
				findings.MissingPayrolls = append(findings.MissingPayrolls, ym)
			}
		case !entry.Signed():
			if c.unsigned {
				findings.NotSignedPayrolls = append(findings.NotSignedPayrolls, ym)
			}
		}
	}

	return findings, findings.HasFindings()
}

// activePeriods は論理削除された雇用期間を除きます。論理削除された期間は在籍月に数えません。
func activePeriods(periods []*period.Period) []*period.Period {
	out := make([]*period.Period, 0, len(periods))
	for _, p := range periods {
		if p != nil && p.Active {
			out = append(out, p)
		}
	}
	return out
}

func coveredByLeave(leaves []*leave.Leave, ym calendar.YearMonth) bool {
	from, to := ym.FirstDay(), ym.LastDay()
	for _, l := range leaves {
		if l.Covers(from, to) {
			return true
		}
	}
	return false
}
