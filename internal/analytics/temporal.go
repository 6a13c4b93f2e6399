package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"trade-journal/internal/domain"
)

// TemporalSeries holds realized P&L summed into five overlapping resolutions.
type TemporalSeries struct {
	Daily      []domain.Bucket
	Weekly     []domain.Bucket
	Monthly    []domain.Bucket
	YearToDate []domain.Bucket
	AllTime    []domain.Bucket
}

// AggregateTemporal buckets realized P&L of normalized trades and partial exits.
// Both streams add into the same buckets. Exit dates are read in loc; the
// year-to-date series keeps only records whose year matches now's year in loc.
func AggregateTemporal(trades []*domain.TradeRecord, exits []*domain.PartialExit, loc *time.Location, now time.Time) TemporalSeries {
	if loc == nil {
		loc = time.Local
	}
	agg := newTemporalAggregator(now.In(loc).Year())

	for _, t := range trades {
		agg.add(t.ExitDate.In(loc), SafePtr(t.RealizedPnL))
	}
	for _, p := range exits {
		agg.add(p.ExitDate.In(loc), SafePtr(p.RealizedPnL))
	}

	return agg.result()
}

// bucketAcc accumulates one bucket. ordinal defines output order.
type bucketAcc struct {
	label   string
	ordinal int
	value   float64
}

// bucketSeries maps bucket label to its accumulator.
type bucketSeries map[string]*bucketAcc

func (s bucketSeries) add(label string, ordinal int, v float64) {
	acc, ok := s[label]
	if !ok {
		acc = &bucketAcc{label: label, ordinal: ordinal}
		s[label] = acc
	}
	acc.value += v
}

// sorted returns buckets ordered by ordinal, then label.
func (s bucketSeries) sorted() []domain.Bucket {
	accs := make([]*bucketAcc, 0, len(s))
	for _, acc := range s {
		accs = append(accs, acc)
	}
	sort.Slice(accs, func(i, j int) bool {
		if accs[i].ordinal != accs[j].ordinal {
			return accs[i].ordinal < accs[j].ordinal
		}
		return accs[i].label < accs[j].label
	})

	out := make([]domain.Bucket, len(accs))
	for i, acc := range accs {
		out[i] = domain.Bucket{Label: acc.label, Value: acc.value}
	}
	return out
}

type temporalAggregator struct {
	currentYear int

	daily      bucketSeries
	weekly     bucketSeries
	monthly    bucketSeries
	yearToDate bucketSeries
	allTime    bucketSeries
}

func newTemporalAggregator(currentYear int) *temporalAggregator {
	return &temporalAggregator{
		currentYear: currentYear,
		daily:       make(bucketSeries),
		weekly:      make(bucketSeries),
		monthly:     make(bucketSeries),
		yearToDate:  make(bucketSeries),
		allTime:     make(bucketSeries),
	}
}

// add books v into every resolution. t must already be in the reporting location.
func (a *temporalAggregator) add(t time.Time, v float64) {
	year, month, day := t.Date()

	a.daily.add(t.Format("2006-01-02"), year*10000+int(month)*100+day, v)

	week := weekOfYear(t)
	a.weekly.add(fmt.Sprintf("Week %d", week), week, v)

	a.monthly.add(monthAbbrev(month), int(month), v)

	if year == a.currentYear {
		a.yearToDate.add(fmt.Sprintf("%s %d", monthAbbrev(month), year), int(month), v)
	}

	a.allTime.add(fmt.Sprintf("%04d", year), year, v)
}

func (a *temporalAggregator) result() TemporalSeries {
	return TemporalSeries{
		Daily:      a.daily.sorted(),
		Weekly:     a.weekly.sorted(),
		Monthly:    a.monthly.sorted(),
		YearToDate: a.yearToDate.sorted(),
		AllTime:    a.allTime.sorted(),
	}
}

// weekOfYear returns ceil((dayOfYear + jan1Weekday + 1) / 7), where dayOfYear is
// zero-based and jan1Weekday counts from Sunday = 0.
func weekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	dayOfYear := t.YearDay() - 1
	return int(math.Ceil(float64(dayOfYear+int(jan1.Weekday())+1) / 7))
}

// monthAbbrev returns the English three-letter month name.
func monthAbbrev(m time.Month) string {
	return m.String()[:3]
}
