package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/settlements/internal/models"
)

// Args collects positional query arguments for a backend's placeholder style.
type Args struct {
	placeholder func(n int) string
	encodeTime  func(t time.Time) any
	values      []any
}

// NewArgs returns an argument list. placeholder renders the n-th (1-based)
// placeholder; encodeTime converts timestamps to the backend's column type.
func NewArgs(placeholder func(n int) string, encodeTime func(t time.Time) any) *Args {
	return &Args{placeholder: placeholder, encodeTime: encodeTime}
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	if t, ok := v.(time.Time); ok {
		v = a.encodeTime(t)
	}
	a.values = append(a.values, v)
	return a.placeholder(len(a.values))
}

// Values returns the collected arguments.
func (a *Args) Values() []any {
	return a.values
}

// ScopeCondition renders the ownership predicate for scope.
// The zero scope matches nothing.
func ScopeCondition(scope models.Scope, args *Args) string {
	switch {
	case scope.IsGlobal():
		return "1 = 1"
	case scope.Valid():
		return "wholesaler_id = " + args.Add(scope.WholesalerID())
	default:
		return "1 = 0"
	}
}

// SettlementWhere renders the WHERE clause (without the keyword) for a scoped,
// filtered settlement query. The status predicate is the SQL form of
// calculator.Project so filtered lists agree with projected rows.
func SettlementWhere(scope models.Scope, f SettlementFilter, args *Args) string {
	conds := []string{ScopeCondition(scope, args)}

	if f.WholesalerID != "" {
		conds = append(conds, "wholesaler_id = "+args.Add(f.WholesalerID))
	}
	if f.OrderID != "" {
		conds = append(conds, "order_id = "+args.Add(f.OrderID))
	}
	if f.PayoutFrom != nil {
		conds = append(conds, "scheduled_payout_at >= "+args.Add(*f.PayoutFrom))
	}
	if f.PayoutTo != nil {
		conds = append(conds, "scheduled_payout_at < "+args.Add(*f.PayoutTo))
	}

	switch f.Status {
	case models.StatusCompleted:
		conds = append(conds, fmt.Sprintf("(status = '%s' OR scheduled_payout_at < %s)",
			models.StatusCompleted, args.Add(f.DueBefore)))
	case models.StatusPending:
		conds = append(conds, fmt.Sprintf("(status = '%s' AND scheduled_payout_at >= %s)",
			models.StatusPending, args.Add(f.DueBefore)))
	}

	return strings.Join(conds, " AND ")
}

// OrderBy renders the ORDER BY clause (without the keyword). Unknown keys and
// orders fall back to newest first. seq breaks ties in insertion order.
func OrderBy(key SortKey, order SortOrder) string {
	if !key.Valid() {
		key = SortByCreatedAt
	}
	dir := "DESC"
	if order == SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, seq ASC", key, dir)
}
