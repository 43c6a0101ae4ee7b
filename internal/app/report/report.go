package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ghalamif/SensorStat/internal/domain"
)

// NoPriorData replaces the baseline timestamp on the first pass of a group.
const NoPriorData = "no prior data"

const baselineLayout = "2006-01-02 15:04:05"

// Options control rendering. The zero value renders in UTC with the default budget.
type Options struct {
	Location  *time.Location
	MaxLines  int
	WrapWidth int
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.MaxLines <= 0 {
		o.MaxLines = 100
	}
	if o.WrapWidth <= 0 {
		o.WrapWidth = 50
	}
	return o
}

// Report is the outcome of comparing one classification with its baseline.
type Report struct {
	Group          string
	Counts         domain.Counts
	Deltas         domain.Counts
	Baseline       *domain.Snapshot
	Classification *domain.Classification
	Summary        string
	// PersistErr is set when the snapshot of this pass could not be stored.
	PersistErr error
}

// Build compares the classification with baseline (nil on a group's first pass).
func Build(group string, c *domain.Classification, baseline *domain.Snapshot, opts Options) *Report {
	opts = opts.withDefaults()

	var base domain.Counts
	if baseline != nil {
		base = baseline.Counts
	}
	r := &Report{
		Group:  group,
		Counts: c.Counts,
		Deltas: domain.Counts{
			Operational:    c.Counts.Operational - base.Operational,
			NonOperational: c.Counts.NonOperational - base.NonOperational,
			Degraded:       c.Counts.Degraded - base.Degraded,
		},
		Baseline:       baseline,
		Classification: c,
	}

	var b strings.Builder
	b.WriteString(group)
	b.WriteString("\nLast check: ")
	if baseline != nil {
		b.WriteString(baseline.CreatedAt.In(opts.Location).Format(baselineLayout))
	} else {
		b.WriteString(NoPriorData)
	}
	b.WriteByte('\n')
	for _, class := range domain.StatusClasses {
		fmt.Fprintf(&b, "%s %s: %d", classIcon(class), classLabel(class), r.Counts.Of(class))
		if baseline != nil {
			fmt.Fprintf(&b, " (%s)", FormatDelta(r.Deltas.Of(class)))
		}
		b.WriteByte('\n')
	}
	r.Summary = b.String()
	return r
}

// FormatDelta renders positive values with a leading plus; zero and negatives as-is.
func FormatDelta(d int) string {
	if d > 0 {
		return "+" + strconv.Itoa(d)
	}
	return strconv.Itoa(d)
}

func classIcon(c domain.StatusClass) string {
	switch c {
	case domain.Operational:
		return "✅"
	case domain.NonOperational:
		return "❌"
	default:
		return "⚠️"
	}
}

func classLabel(c domain.StatusClass) string {
	switch c {
	case domain.Operational:
		return "Operational sensors"
	case domain.NonOperational:
		return "Non-operational sensors"
	default:
		return "With warnings"
	}
}

// ActionLabel is the short button caption for a class list.
func ActionLabel(c domain.StatusClass) string {
	return "List " + classIcon(c)
}

// ListTitle heads the first page of a class listing.
func ListTitle(c domain.StatusClass) string {
	switch c {
	case domain.Operational:
		return "Operational sensors:"
	case domain.NonOperational:
		return "Non-operational sensors:"
	default:
		return "Sensors with warnings:"
	}
}
