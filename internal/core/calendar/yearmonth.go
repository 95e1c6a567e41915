// Package calendar は年月単位の計算を提供します。
package calendar

import (
	"fmt"
	"time"
)

// YearMonth は暦上の年月を表します。
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// Of は時刻が属する年月を返します。
func Of(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Previous は前月を返します。1 月の前月は前年の 12 月です。
func (ym YearMonth) Previous() YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Next は翌月を返します。
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Before は ym が other より前の月であれば true を返します。
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// FirstDay は月初日 00:00 UTC を返します。
func (ym YearMonth) FirstDay() time.Time {
	return time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
}

// LastDay は月末日 00:00 UTC を返します。
func (ym YearMonth) LastDay() time.Time {
	return ym.FirstDay().AddDate(0, 1, -1)
}

// Valid は月が 1〜12 の範囲にあるかを返します。
func (ym YearMonth) Valid() bool {
	return ym.Month >= 1 && ym.Month <= 12
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// PreviousMonth は (year, month) の前月を返します。
func PreviousMonth(year, month int) YearMonth {
	return YearMonth{Year: year, Month: month}.Previous()
}

// Date は時刻を日付 (00:00 UTC) に丸めます。
func Date(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DatePtr は nil を保ったまま Date を適用します。
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}
