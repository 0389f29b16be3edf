package membership

import (
	"strings"
	"time"

	"LIBRA-backend/internal/library/calendar"
)

// Plan は会員プラン（期間）
type Plan string

const (
	Plan6Months Plan = "6m"
	Plan1Year   Plan = "1y"
	Plan2Years  Plan = "2y"
)

var planAliases = map[string]Plan{
	"6m": Plan6Months, "6-month": Plan6Months,
	"1y": Plan1Year, "1-year": Plan1Year,
	"2y": Plan2Years, "2-year": Plan2Years,
}

func ParsePlan(s string) (Plan, bool) {
	p, ok := planAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

func (p Plan) Months() int {
	switch p {
	case Plan6Months:
		return 6
	case Plan1Year:
		return 12
	case Plan2Years:
		return 24
	}
	return 0
}

// EndFrom は from にプラン期間を暦で加算した日
func (p Plan) EndFrom(from time.Time) time.Time {
	return calendar.AddMonths(from, p.Months())
}

// Action は会員更新の操作
type Action string

const (
	ActionExtend6  Action = "extend6"
	ActionExtend1y Action = "extend1y"
	ActionExtend2y Action = "extend2y"
	ActionRemove   Action = "remove"
)

var actionAliases = map[string]Action{
	"extend6": ActionExtend6, "extend-6-month": ActionExtend6,
	"extend1y": ActionExtend1y, "extend-1-year": ActionExtend1y,
	"extend2y": ActionExtend2y, "extend-2-year": ActionExtend2y,
	"remove": ActionRemove, "deactivate": ActionRemove,
}

func ParseAction(s string) (Action, bool) {
	a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// extension は延長操作なら対応するプランを返す
func (a Action) extension() (Plan, bool) {
	switch a {
	case ActionExtend6:
		return Plan6Months, true
	case ActionExtend1y:
		return Plan1Year, true
	case ActionExtend2y:
		return Plan2Years, true
	}
	return "", false
}

// Apply は現在の終了日・状態に操作を適用した結果を返す。
// 延長は今日ではなく現在の end_date に加算し、Active に戻す。remove は end_date を変えない。
func (a Action) Apply(end time.Time, status Status) (time.Time, Status) {
	if p, ok := a.extension(); ok {
		return p.EndFrom(end), StatusActive
	}
	if a == ActionRemove {
		return end, StatusInactive
	}
	return end, status
}
