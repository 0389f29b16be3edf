// Package calendar は貸出・会員期間で使う日付演算。
// 日付は時刻を持たない暦日として扱い、UTC 0時の time.Time で表現する。
package calendar

import (
	"strings"
	"time"
)

const Layout = "2006-01-02"

type Clock interface {
	Now() time.Time
}

// SystemClock は loc の暦で「今日」を返す
type SystemClock struct{ Loc *time.Location }

func (c SystemClock) Now() time.Time {
	if c.Loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Loc)
}

// FixedClock はテスト用
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Date は y/m/d の暦日
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateOf は t の（t 自身のロケーションでの）暦日を返す
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

func Today(c Clock) time.Time { return DateOf(c.Now()) }

// Parse は "YYYY-MM-DD" を暦日に変換する
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, strings.TrimSpace(s), time.UTC)
}

func Format(t time.Time) string { return t.Format(Layout) }

func AddDays(t time.Time, n int) time.Time {
	return DateOf(t).AddDate(0, 0, n)
}

// AddMonths は月単位の加算。加算先の月に同じ日が無ければ月末に丸める
// （1/31 + 1ヶ月 = 2/28 or 2/29, 2024-02-29 + 12ヶ月 = 2025-02-28）。
// time.AddDate は 1/31 + 1ヶ月 を 3/3 に正規化してしまうので使わない。
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ny := y + floorDiv(total, 12)
	nm := time.Month(floorMod(total, 12) + 1)
	if last := DaysIn(ny, nm); d > last {
		d = last
	}
	return Date(ny, nm, d)
}

func AddYears(t time.Time, n int) time.Time { return AddMonths(t, 12*n) }

// DaysIn は y年m月の日数
func DaysIn(y int, m time.Month) int {
	return Date(y, m+1, 0).Day()
}

// DaysBetween は to - from の日数（暦日差）
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}

// DaysLate は max(0, actual - due)
func DaysLate(due, actual time.Time) int {
	if n := DaysBetween(due, actual); n > 0 {
		return n
	}
	return 0
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
