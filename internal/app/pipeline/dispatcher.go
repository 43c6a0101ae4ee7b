package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghalamif/SensorStat/internal/app/report"
	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

const usageText = "Status - current state of the sensors\n" +
	"Chart - how sensor statuses changed over the last day"

// Dispatcher answers inbound commands. Every ports.Command implementation has
// a case in Handle.
type Dispatcher struct {
	monitor     *Monitor
	trend       ports.TrendRenderer
	notifier    ports.Notifier
	obs         ports.Observability
	trendWindow time.Duration
	reportOpts  report.Options
	now         func() time.Time
}

func NewDispatcher(monitor *Monitor, trend ports.TrendRenderer, notifier ports.Notifier, obs ports.Observability, trendWindow time.Duration, opts report.Options) *Dispatcher {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	return &Dispatcher{
		monitor:     monitor,
		trend:       trend,
		notifier:    notifier,
		obs:         obs,
		trendWindow: trendWindow,
		reportOpts:  opts,
		now:         time.Now,
	}
}

// Handle runs one command. Failures of the pass itself are logged and answered
// with a failure message; only transport errors are returned.
func (d *Dispatcher) Handle(ctx context.Context, req ports.Request) error {
	d.obs.IncCounter("sensorstat_commands_total", 1)

	switch cmd := req.Command.(type) {
	case ports.StartCommand:
		return d.notifier.SendMenu(ctx, req.Recipient(), usageText, ports.StatusButton, ports.TrendButton)
	case ports.StatusCommand:
		return d.handleStatus(ctx, req)
	case ports.TrendCommand:
		return d.handleTrend(ctx, req)
	case ports.ListCommand:
		return d.handleList(ctx, req, cmd.Class)
	default:
		return fmt.Errorf("unhandled command %T", cmd)
	}
}

func (d *Dispatcher) handleStatus(ctx context.Context, req ports.Request) error {
	group := d.monitor.GroupName(domain.AllGroups())
	r, err := d.monitor.Refresh(ctx, domain.AllGroups())
	if err != nil {
		d.obs.LogError("status_refresh_failed", err,
			ports.Field{Key: "group", Value: group},
			ports.Field{Key: "chat_id", Value: req.ChatID})
		return d.notifier.SendText(ctx, req.Recipient(), "Could not fetch sensor data: "+group)
	}
	return d.notifier.SendText(ctx, req.Recipient(), summaryText(r), listActions()...)
}

func (d *Dispatcher) handleTrend(ctx context.Context, req ports.Request) error {
	group := d.monitor.GroupName(domain.AllGroups())
	to := d.now()
	art, err := d.trend.RenderTrend(ctx, group, to.Add(-d.trendWindow), to)
	switch {
	case errors.Is(err, domain.ErrNoData):
		return d.notifier.SendText(ctx, req.Recipient(), "No data for the selected period.")
	case err != nil:
		d.obs.LogError("trend_render_failed", err, ports.Field{Key: "group", Value: group})
		return d.notifier.SendText(ctx, req.Recipient(), "Could not build the chart.")
	}
	return d.notifier.SendImage(ctx, req.Recipient(), art)
}

func (d *Dispatcher) handleList(ctx context.Context, req ports.Request, class domain.StatusClass) error {
	latest := d.monitor.State().Latest()
	if latest == nil {
		return d.notifier.SendText(ctx, req.Recipient(), "No data yet. Request the current status first.")
	}
	for _, page := range report.Paginate(report.ListTitle(class), latest.Set(class), d.reportOpts) {
		if err := d.notifier.SendText(ctx, req.Recipient(), page); err != nil {
			return err
		}
	}
	return nil
}

func summaryText(r *report.Report) string {
	if r.PersistErr != nil {
		return r.Summary + "\nThis check was not saved to history."
	}
	return r.Summary
}

func listActions() []ports.Action {
	out := make([]ports.Action, 0, len(domain.StatusClasses))
	for _, class := range domain.StatusClasses {
		out = append(out, ports.Action{Label: report.ActionLabel(class), Data: ports.ListData(class)})
	}
	return out
}
