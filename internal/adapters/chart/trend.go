package chart

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

type SnapshotReader interface {
	SnapshotsInRange(ctx context.Context, group string, from, to time.Time) ([]domain.Snapshot, error)
}

type Options struct {
	Location     *time.Location
	TickInterval time.Duration
	MaxYLabels   int
	Width        int
	Height       int
}

func (o *Options) applyDefaults() {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Hour
	}
	if o.MaxYLabels < 2 {
		o.MaxYLabels = 20
	}
	if o.Width <= 0 {
		o.Width = 1500
	}
	if o.Height <= 0 {
		o.Height = 750
	}
}

var seriesStyle = map[domain.StatusClass]gochart.Style{
	domain.Operational:    {StrokeColor: drawing.Color{R: 0, G: 128, B: 0, A: 255}, StrokeWidth: 2},
	domain.NonOperational: {StrokeColor: drawing.Color{R: 220, G: 20, B: 20, A: 255}, StrokeWidth: 2},
	domain.Degraded:       {StrokeColor: drawing.Color{R: 230, G: 190, B: 0, A: 255}, StrokeWidth: 2},
}

var seriesName = map[domain.StatusClass]string{
	domain.Operational:    "Operational sensors",
	domain.NonOperational: "Non-operational sensors",
	domain.Degraded:       "With warnings",
}

var gridStyle = gochart.Style{
	StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
	StrokeWidth: 1,
}

type Renderer struct {
	store SnapshotReader
	opts  Options
}

func NewRenderer(store SnapshotReader, opts Options) *Renderer {
	opts.applyDefaults()
	return &Renderer{store: store, opts: opts}
}

// RenderTrend plots one line per status class over [from, to]. The PNG is
// rendered in memory and handed to the caller; nothing touches the disk.
func (r *Renderer) RenderTrend(ctx context.Context, group string, from, to time.Time) (*domain.ChartArtifact, error) {
	snaps, err := r.store.SnapshotsInRange(ctx, group, from, to)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, domain.ErrNoData
	}

	xs := make([]time.Time, len(snaps))
	ys := map[domain.StatusClass][]float64{}
	maxCount := 0
	for i, s := range snaps {
		xs[i] = s.CreatedAt.In(r.opts.Location)
		for _, class := range domain.StatusClasses {
			v := s.Counts.Of(class)
			ys[class] = append(ys[class], float64(v))
			if v > maxCount {
				maxCount = v
			}
		}
	}

	series := make([]gochart.Series, 0, len(domain.StatusClasses))
	for _, class := range domain.StatusClasses {
		series = append(series, gochart.TimeSeries{
			Name:    seriesName[class],
			Style:   seriesStyle[class],
			XValues: xs,
			YValues: ys[class],
		})
	}

	yMax, yTicks := YTicks(maxCount, r.opts.MaxYLabels)
	graph := gochart.Chart{
		Title:  "Sensor status over time",
		Width:  r.opts.Width,
		Height: r.opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           "Time",
			Range:          &gochart.ContinuousRange{Min: gochart.TimeToFloat64(from), Max: gochart.TimeToFloat64(to)},
			Ticks:          XTicks(from, to, r.opts.TickInterval, r.opts.Location),
			GridMajorStyle: gridStyle,
		},
		YAxis: gochart.YAxis{
			Name:           "Sensors",
			Range:          &gochart.ContinuousRange{Min: 0, Max: yMax},
			Ticks:          yTicks,
			GridMajorStyle: gridStyle,
		},
		Series: series,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend: %w", err)
	}

	return &domain.ChartArtifact{
		Name:        fmt.Sprintf("trend-%s.png", to.In(r.opts.Location).Format("20060102-1504")),
		ContentType: "image/png",
		Data:        buf.Bytes(),
	}, nil
}

// XTicks places a labelled tick every interval across [from, to], starting at
// the first interval boundary not before from.
func XTicks(from, to time.Time, interval time.Duration, loc *time.Location) []gochart.Tick {
	start := from.Truncate(interval)
	if start.Before(from) {
		start = start.Add(interval)
	}
	var ticks []gochart.Tick
	for t := start; !t.After(to); t = t.Add(interval) {
		ticks = append(ticks, gochart.Tick{
			Value: gochart.TimeToFloat64(t),
			Label: t.In(loc).Format("15:04"),
		})
	}
	return ticks
}

// YTicks picks an integer step so that 0..peak is covered by at most maxLabels ticks.
func YTicks(peak, maxLabels int) (float64, []gochart.Tick) {
	if peak < 1 {
		peak = 1
	}
	step := (peak + maxLabels - 2) / (maxLabels - 1)
	if step < 1 {
		step = 1
	}
	top := ((peak + step - 1) / step) * step

	ticks := make([]gochart.Tick, 0, top/step+1)
	for v := 0; v <= top; v += step {
		ticks = append(ticks, gochart.Tick{Value: float64(v), Label: strconv.Itoa(v)})
	}
	return float64(top), ticks
}

var _ ports.TrendRenderer = (*Renderer)(nil)
