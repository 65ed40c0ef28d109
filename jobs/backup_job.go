package jobs

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anjiri1684/edirpay/services"
)

// Backup exports the ledger as CSV documents to a chat.
type Backup struct {
	reports  *services.Reports
	notifier services.Notifier
}

func NewBackup(r *services.Reports, n services.Notifier) *Backup {
	return &Backup{reports: r, notifier: n}
}

func (b *Backup) SendTo(ctx context.Context, chatID int64) error {
	stamp := time.Now().Format("2006-01-02_1504")

	var members bytes.Buffer
	if err := b.reports.ExportMembersCSV(ctx, &members); err != nil {
		return fmt.Errorf("export members: %w", err)
	}
	var subs bytes.Buffer
	if err := b.reports.ExportSubmissionsCSV(ctx, &subs); err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}

	if err := b.notifier.SendDocument(ctx, chatID, "members_"+stamp+".csv", members.Bytes(), "📦 Members backup"); err != nil {
		return err
	}
	return b.notifier.SendDocument(ctx, chatID, "submissions_"+stamp+".csv", subs.Bytes(), "📦 Submissions backup")
}

func (j *Jobs) SendBackup() {
	log.Println("Running job: SendBackup...")
	ctx, cancel := j.context()
	defer cancel()

	if err := j.backup.SendTo(ctx, j.cfg.BackupChatID); err != nil {
		log.Printf("🔥 scheduled backup failed: %v", err)
		return
	}
	log.Printf("✅ Backup sent to %d", j.cfg.BackupChatID)
}
