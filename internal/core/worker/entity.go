package worker

import (
	"time"

	"github.com/ogurasousui/worker-chronology/internal/core/calendar"
	"github.com/ogurasousui/worker-chronology/internal/core/ids"
)

// Status は従業員の雇用状態を表します。
type Status string

const (
	StatusActive     Status = "active"
	StatusOnboarding Status = "onboarding"
	StatusTerminated Status = "terminated"
)

// Worker は従業員集約の読み取り用スナップショットです。
type Worker struct {
	ID               ids.WorkerID
	FirstName        string
	LastName         string
	Email            string
	Status           Status
	ExternallyFunded bool
	Tracked          bool
	Payrolls         []PayrollEntry
}

// PayrollEntry は従業員集約に埋め込まれた給与明細台帳の 1 行です。
type PayrollEntry struct {
	Month        int
	Year         int
	DocumentRef  string
	SignatureRef string
	SignedAt     *time.Time
}

// Signed は署名参照と署名日時の両方が揃っているかを返します。
func (p PayrollEntry) Signed() bool {
	return p.SignatureRef != "" && p.SignedAt != nil
}

// Period は給与明細の対象年月を返します。
func (p PayrollEntry) Period() calendar.YearMonth {
	return calendar.YearMonth{Year: p.Year, Month: p.Month}
}

// PayrollIndex は台帳を年月で引けるようにします。同じ年月が複数ある場合は後勝ちです。
func (w *Worker) PayrollIndex() map[calendar.YearMonth]PayrollEntry {
	index := make(map[calendar.YearMonth]PayrollEntry, len(w.Payrolls))
	for _, entry := range w.Payrolls {
		index[entry.Period()] = entry
	}
	return index
}
