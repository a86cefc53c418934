package main

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

// StartPruneScheduler runs the visit retention pass on a cron schedule.
// Pruning is never triggered by the tracking operations themselves;
// this scheduler is the only automatic caller.
func StartPruneScheduler(cfg Config, analytics *Analytics) {
	schedule, ok := parseSchedule(cfg.PruneSchedule, "prune_schedule")
	if !ok {
		return
	}
	log.Printf("Visit prune scheduled (cron: %s), retention %d days", cfg.PruneSchedule, cfg.RetentionDays)

	go runSchedule(schedule, cfg.Location, "prune", func() {
		analytics.PruneOldVisits()
		log.Printf("Pruned visits older than %d days", cfg.RetentionDays)
	})
}

// StartReportScheduler renders the daily reports, writes them to the
// output directory and posts the operational report to Slack when
// configured.
func StartReportScheduler(cfg Config, analytics *Analytics, api *slack.Client) {
	schedule, ok := parseSchedule(cfg.ReportSchedule, "report_schedule")
	if !ok {
		return
	}
	log.Printf("Daily report scheduled (cron: %s)", cfg.ReportSchedule)

	go runSchedule(schedule, cfg.Location, "report", func() {
		DeliverDailyReport(cfg, analytics, api)
	})
}

// DeliverDailyReport is the scheduled report pass, also invocable
// directly for a manual run.
func DeliverDailyReport(cfg Config, analytics *Analytics, api *slack.Client) {
	now := time.Now().In(cfg.Location)

	report := analytics.BuildOperationalReport()
	if path, err := WriteReportFile(report, cfg.ReportOutputDir, now); err != nil {
		log.Printf("Error writing report file: %v", err)
	} else {
		log.Printf("Wrote daily report to %s", path)
	}

	subject, body := analytics.BuildEmailReport()
	if path, err := WriteEmailDraftFile(subject, body, cfg.ReportOutputDir, now); err != nil {
		log.Printf("Error writing email draft: %v", err)
	} else {
		log.Printf("Wrote email draft to %s", path)
	}

	if api != nil && cfg.ReportChannelID != "" {
		PostReportToSlack(api, cfg.ReportChannelID, report)
	}
}

func parseSchedule(expr, name string) (cron.Schedule, bool) {
	if expr == "" {
		log.Printf("%s not set, disabled", name)
		return nil, false
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		log.Printf("Invalid %s '%s': %v — disabled", name, expr, err)
		return nil, false
	}
	return schedule, true
}

func runSchedule(schedule cron.Schedule, loc *time.Location, name string, job func()) {
	for {
		now := time.Now().In(loc)
		next := schedule.Next(now)
		wait := next.Sub(now)
		log.Printf("Next %s at %s (in %s)", name, next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		time.Sleep(wait)
		job()
	}
}
