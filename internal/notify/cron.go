package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time.
func nextCronDuration(expr string) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("notify: cron %q: %w", expr, err)
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, nil
}

// RunDigestLoop posts a backlog digest on the given cron schedule until the
// context is cancelled. Build or send failures are logged and the loop keeps
// going; only an invalid expression returns an error.
func RunDigestLoop(ctx context.Context, gdb *gorm.DB, expr string, top int, notifiers []Notifier) error {
	if _, err := nextCronDuration(expr); err != nil {
		return err
	}
	for {
		d, err := nextCronDuration(expr)
		if err != nil {
			return err
		}
		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		digest, err := BuildDigest(gdb, top)
		if err != nil {
			log.Printf("notify: digest: %v", err)
			continue
		}
		for _, n := range notifiers {
			if err := n.SendDigest(ctx, digest); err != nil {
				log.Printf("notify: send digest: %v", err)
			}
		}
	}
}
