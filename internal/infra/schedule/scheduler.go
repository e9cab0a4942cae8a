package schedule

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	appanalysis "github.com/bryanwahyu/automaton-rca/internal/application/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/config"
	domain "github.com/bryanwahyu/automaton-rca/internal/domain/analysis"
	"github.com/bryanwahyu/automaton-rca/internal/domain/notify"
	"github.com/bryanwahyu/automaton-rca/internal/middleware"
)

const defaultTenant = "default"

// Scheduler triggers configured analyses on cron expressions and raises
// alerts when a finished run trips the schedule's keyword threshold.
type Scheduler struct {
	cron      *cron.Cron
	service   *appanalysis.Service
	notifiers []notify.Notifier
}

func New(svc *appanalysis.Service, notifiers []notify.Notifier) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		service:   svc,
		notifiers: notifiers,
	}
}

// Register adds every schedule entry. Invalid entries are logged and
// skipped so one bad expression does not block the rest.
func (s *Scheduler) Register(schedules []config.Schedule) {
	for _, sc := range schedules {
		sc := sc
		if sc.Cron == "" || sc.Target == "" {
			log.Printf("schedule skipped: name=%s missing cron or target", sc.Name)
			continue
		}
		if _, err := s.cron.AddFunc(sc.Cron, func() { s.runOne(sc) }); err != nil {
			log.Printf("schedule invalid: name=%s cron=%q err=%v", sc.Name, sc.Cron, err)
			continue
		}
		log.Printf("schedule registered: name=%s cron=%q tenant=%s target=%s",
			sc.Name, sc.Cron, tenantOf(sc), sc.Target)
	}
}

// Start begins cron dispatch in its own goroutine.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts dispatch; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

func (s *Scheduler) runOne(sc config.Schedule) {
	tenant := tenantOf(sc)
	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	res, err := s.service.Trigger(context.Background(), appanalysis.TriggerAnalysisCommand{
		TenantID: tenant,
		Target:   sc.Target,
	})
	middleware.DecrementAnalysesRunning()
	if err != nil {
		middleware.IncrementAnalysesFailed()
		log.Printf("scheduled run failed: name=%s target=%s err=%v", sc.Name, sc.Target, err)
		return
	}
	middleware.AddHealingActions(res.HealingActions)
	log.Printf("scheduled run finished: name=%s run=%s risk=%s score=%d",
		sc.Name, res.ID, res.RiskLevel, res.RiskScore)

	if sc.AlertThreshold == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	report, _, err := s.service.Report(ctx, tenant, domain.RunID(res.ID), domain.FormatComprehensive)
	if err != nil {
		log.Printf("scheduled report failed: name=%s run=%s err=%v", sc.Name, res.ID, err)
		return
	}
	if !notify.ShouldAlert(string(report), sc.AlertThreshold) {
		return
	}

	alert := notify.Alert{
		Name:     sc.Name,
		Text:     string(report),
		TenantID: tenant,
		RunID:    res.ID,
		Channels: sc.Notification,
	}
	for _, n := range s.notifiers {
		if !channelSelected(alert.Channels, n.Channel()) {
			continue
		}
		sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := n.Send(sctx, alert); err != nil {
			log.Printf("alert send failed: name=%s channel=%s err=%v", sc.Name, n.Channel(), err)
		} else {
			middleware.IncrementAlerts()
		}
		scancel()
	}
}

func tenantOf(sc config.Schedule) string {
	if sc.Tenant == "" {
		return defaultTenant
	}
	return sc.Tenant
}

// channelSelected treats an empty channel list as "all configured channels".
func channelSelected(selected []string, channel string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, c := range selected {
		if c == channel {
			return true
		}
	}
	return false
}
