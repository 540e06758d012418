// Package metrics computes the dashboard snapshot from the current data.
// Everything here is read-only aggregation; it runs concurrently with
// writes and reflects whatever the store returns at read time.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/internal/model"
)

// Actor is the caller context a metrics request is scoped by. Non-admin
// actors only see their own figures.
type Actor struct {
	WorkerID int64
	UID      string
	Role     string
}

// IsAdmin reports whether the actor sees fleet-wide figures.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// Aggregator computes dashboard figures over current vs previous
// calendar month windows.
type Aggregator struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates an aggregator reading from db.
func New(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db, now: time.Now}
}

// NewAt creates an aggregator with a fixed clock, for tests and
// deterministic reporting windows.
func NewAt(db *gorm.DB, now func() time.Time) *Aggregator {
	return &Aggregator{db: db, now: now}
}

// FleetCounts are the admin-only vehicle availability figures.
type FleetCounts struct {
	InUse       int64 `json:"inUse"`
	Available   int64 `json:"available"`
	Maintenance int64 `json:"maintenance"`
}

// Snapshot is the dashboard metrics object.
type Snapshot struct {
	TotalValueCents       int64        `json:"totalValueCents"`
	GrowthMultas          int64        `json:"growthMultas"`
	GrowthMultasPercent   float64      `json:"growthMultasPercent"`
	GrowthSemParar        int64        `json:"growthSemParar"`
	GrowthSemPararPercent float64      `json:"growthSemPararPercent"`
	Fleet                 *FleetCounts `json:"fleet,omitempty"`
}

// GrowthPercent computes month-over-month growth. A prior period of zero
// is not a division: zero-to-N counts as 100% growth, zero-to-zero as 0%.
func GrowthPercent(current, previous int64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// monthWindow returns [start, end) for the calendar month containing t.
func monthWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// previousMonthWindow returns [start, end) for the month before t's.
func previousMonthWindow(t time.Time) (time.Time, time.Time) {
	start, _ := monthWindow(t)
	return start.AddDate(0, -1, 0), start
}

// sumValue totals infraction spend in [from, to), optionally filtered by
// kind and scoped to a worker.
func (a *Aggregator) sumValue(ctx context.Context, from, to time.Time, kind string, workerID *int64) (int64, error) {
	q := a.db.WithContext(ctx).Model(&model.Infraction{}).
		Where("occurred_at >= ? AND occurred_at < ?", from, to)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if workerID != nil {
		q = q.Where("worker_id = ?", *workerID)
	}

	var total int64
	if err := q.Select("COALESCE(SUM(value_cents), 0)").Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("sum infraction value: %w", err)
	}
	return total, nil
}

// Snapshot produces the dashboard metrics for the actor. Any store
// failure aborts the whole snapshot; no partial results are returned.
func (a *Aggregator) Snapshot(ctx context.Context, actor Actor) (*Snapshot, error) {
	now := a.now()
	curFrom, curTo := monthWindow(now)
	prevFrom, prevTo := previousMonthWindow(now)

	var scope *int64
	if !actor.IsAdmin() {
		scope = &actor.WorkerID
	}

	total, err := a.sumValue(ctx, curFrom, curTo, "", scope)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{TotalValueCents: total}

	for _, kind := range []string{model.KindMulta, model.KindSemParar} {
		cur, err := a.sumValue(ctx, curFrom, curTo, kind, scope)
		if err != nil {
			return nil, err
		}
		prev, err := a.sumValue(ctx, prevFrom, prevTo, kind, scope)
		if err != nil {
			return nil, err
		}
		switch kind {
		case model.KindMulta:
			snap.GrowthMultas = cur - prev
			snap.GrowthMultasPercent = GrowthPercent(cur, prev)
		case model.KindSemParar:
			snap.GrowthSemParar = cur - prev
			snap.GrowthSemPararPercent = GrowthPercent(cur, prev)
		}
	}

	if actor.IsAdmin() {
		fleet, err := a.fleetCounts(ctx)
		if err != nil {
			return nil, err
		}
		snap.Fleet = fleet
	}
	return snap, nil
}

func (a *Aggregator) fleetCounts(ctx context.Context) (*FleetCounts, error) {
	type row struct {
		Status string
		Total  int64
	}
	var rows []row
	err := a.db.WithContext(ctx).Model(&model.Vehicle{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count vehicles by status: %w", err)
	}

	var counts FleetCounts
	for _, r := range rows {
		switch r.Status {
		case model.VehicleInUse:
			counts.InUse = r.Total
		case model.VehicleAvailable:
			counts.Available = r.Total
		case model.VehicleMaintenance:
			counts.Maintenance = r.Total
		}
	}
	return &counts, nil
}

// workerCount is an infraction count attributed to a worker UID.
type workerCount struct {
	UID   string
	Count int64
}

// countByWorker groups infractions in [from, to) by worker UID.
func (a *Aggregator) countByWorker(ctx context.Context, from, to time.Time) ([]workerCount, error) {
	var rows []workerCount
	err := a.db.WithContext(ctx).Model(&model.Infraction{}).
		Select("workers.uid AS uid, COUNT(*) AS count").
		Joins("JOIN workers ON workers.id = infractions.worker_id").
		Where("infractions.occurred_at >= ? AND infractions.occurred_at < ?", from, to).
		Group("workers.uid").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count infractions by worker: %w", err)
	}
	return rows, nil
}

// Offender is one entry of the prior-month ranking.
type Offender struct {
	UID     string  `json:"uid"`
	Count   int64   `json:"count"`
	Percent float64 `json:"percent"`
}

// TopOffenders ranks workers by prior-month infraction count, descending,
// ties broken by UID ascending. Percent is each worker's share of the
// month's total count; shares sum to 100 within float rounding.
func (a *Aggregator) TopOffenders(ctx context.Context) ([]Offender, error) {
	prevFrom, prevTo := previousMonthWindow(a.now())
	rows, err := a.countByWorker(ctx, prevFrom, prevTo)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, r := range rows {
		total += r.Count
	}

	offenders := make([]Offender, 0, len(rows))
	for _, r := range rows {
		o := Offender{UID: r.UID, Count: r.Count}
		if total > 0 {
			o.Percent = float64(r.Count) / float64(total) * 100
		}
		offenders = append(offenders, o)
	}
	sort.Slice(offenders, func(i, j int) bool {
		if offenders[i].Count != offenders[j].Count {
			return offenders[i].Count > offenders[j].Count
		}
		return offenders[i].UID < offenders[j].UID
	})
	return offenders, nil
}

// Increase is one entry of the biggest-increase ranking.
type Increase struct {
	UID           string  `json:"uid"`
	CurrentCount  int64   `json:"currentCount"`
	PreviousCount int64   `json:"previousCount"`
	GrowthPercent float64 `json:"growthPercent"`
}

// BiggestIncrease ranks workers with infractions in both the current and
// the previous month by month-over-month growth, descending. limit <= 0
// returns everything.
func (a *Aggregator) BiggestIncrease(ctx context.Context, limit int) ([]Increase, error) {
	now := a.now()
	curFrom, curTo := monthWindow(now)
	prevFrom, prevTo := previousMonthWindow(now)

	current, err := a.countByWorker(ctx, curFrom, curTo)
	if err != nil {
		return nil, err
	}
	previous, err := a.countByWorker(ctx, prevFrom, prevTo)
	if err != nil {
		return nil, err
	}

	prevByUID := make(map[string]int64, len(previous))
	for _, r := range previous {
		prevByUID[r.UID] = r.Count
	}

	var increases []Increase
	for _, r := range current {
		prev, ok := prevByUID[r.UID]
		if !ok {
			continue
		}
		increases = append(increases, Increase{
			UID:           r.UID,
			CurrentCount:  r.Count,
			PreviousCount: prev,
			GrowthPercent: GrowthPercent(r.Count, prev),
		})
	}
	sort.Slice(increases, func(i, j int) bool {
		if increases[i].GrowthPercent != increases[j].GrowthPercent {
			return increases[i].GrowthPercent > increases[j].GrowthPercent
		}
		return increases[i].UID < increases[j].UID
	})

	if limit > 0 && len(increases) > limit {
		increases = increases[:limit]
	}
	return increases, nil
}

// MonthPoint is one month of the infraction spend time series, split by
// category. Values are integer cents.
type MonthPoint struct {
	Month         string `json:"month"` // YYYY-MM
	MultaCents    int64  `json:"multa"`
	SemPararCents int64  `json:"semParar"`
}

// ChartData returns the monthly infraction spend series for the trailing
// months window (current month included), oldest first. Bucketing happens
// in Go so the query stays portable across drivers.
func (a *Aggregator) ChartData(ctx context.Context, months int) ([]MonthPoint, error) {
	if months <= 0 {
		months = 12
	}
	now := a.now()
	curStart, curEnd := monthWindow(now)
	from := curStart.AddDate(0, -(months - 1), 0)

	type row struct {
		OccurredAt time.Time
		Kind       string
		ValueCents int64
	}
	var rows []row
	err := a.db.WithContext(ctx).Model(&model.Infraction{}).
		Select("occurred_at, kind, value_cents").
		Where("occurred_at >= ? AND occurred_at < ?", from, curEnd).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch chart rows: %w", err)
	}

	points := make([]MonthPoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		month := from.AddDate(0, i, 0).Format("2006-01")
		points[i] = MonthPoint{Month: month}
		index[month] = i
	}
	for _, r := range rows {
		i, ok := index[r.OccurredAt.Format("2006-01")]
		if !ok {
			continue
		}
		switch r.Kind {
		case model.KindMulta:
			points[i].MultaCents += r.ValueCents
		case model.KindSemParar:
			points[i].SemPararCents += r.ValueCents
		}
	}
	return points, nil
}

// ExpiringInfractions lists unanswered infractions whose response
// deadline falls within the given window from now, soonest first.
func (a *Aggregator) ExpiringInfractions(ctx context.Context, within time.Duration) ([]model.Infraction, error) {
	now := a.now()
	var infractions []model.Infraction
	err := a.db.WithContext(ctx).
		Where("response_deadline IS NOT NULL").
		Where("response_deadline >= ? AND response_deadline < ?", now, now.Add(within)).
		Where("response_status <> ?", model.ResponseAnswered).
		Order("response_deadline ASC").
		Find(&infractions).Error
	if err != nil {
		return nil, fmt.Errorf("fetch expiring infractions: %w", err)
	}
	return infractions, nil
}
