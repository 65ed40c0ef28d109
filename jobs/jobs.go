package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/edirpay/services"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 2 * time.Minute

type Config struct {
	PendingTTL     time.Duration // 0 keeps slots open forever
	ReminderAfter  time.Duration // 0 disables receipt reminders
	BackupSpec     string        // cron spec, empty disables it
	BackupChatID   int64
	ReminderWindow time.Duration
}

// Jobs holds the scheduled maintenance work of the bot.
type Jobs struct {
	ledger   *services.Ledger
	notifier services.Notifier
	backup   *Backup
	cfg      Config
	now      func() time.Time
}

func New(l *services.Ledger, n services.Notifier, b *Backup, cfg Config) *Jobs {
	if cfg.ReminderWindow <= 0 {
		cfg.ReminderWindow = 5 * time.Minute
	}
	return &Jobs{ledger: l, notifier: n, backup: b, cfg: cfg, now: time.Now}
}

// Schedule registers the enabled jobs on c.
func (j *Jobs) Schedule(c *cron.Cron) error {
	if j.cfg.PendingTTL > 0 {
		if _, err := c.AddFunc("*/5 * * * *", j.ExpirePendingSlots); err != nil {
			return err
		}
	}
	if j.cfg.ReminderAfter > 0 {
		spec := "@every " + j.cfg.ReminderWindow.String()
		if _, err := c.AddFunc(spec, j.SendReceiptReminders); err != nil {
			return err
		}
	}
	if j.cfg.BackupSpec != "" && j.backup != nil && j.cfg.BackupChatID != 0 {
		if _, err := c.AddFunc(j.cfg.BackupSpec, j.SendBackup); err != nil {
			return err
		}
	}
	return nil
}

func (j *Jobs) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), jobTimeout)
}
