package jobs

import (
	"log"

	"github.com/anjiri1684/edirpay/services"
)

// SendReceiptReminders nudges members whose form crossed ReminderAfter
// during the last window, so each slot is reminded once.
func (j *Jobs) SendReceiptReminders() {
	ctx, cancel := j.context()
	defer cancel()

	upperBound := j.now().Add(-j.cfg.ReminderAfter)
	lowerBound := upperBound.Add(-j.cfg.ReminderWindow)

	waiting, err := j.ledger.AwaitingCreatedBetween(ctx, lowerBound, upperBound)
	if err != nil {
		log.Printf("Error checking for missing receipts: %v", err)
		return
	}

	for _, sub := range waiting {
		if err := j.notifier.Notify(ctx, sub.OwnerID, services.ReceiptReminder(sub)); err != nil {
			log.Printf("🔥 receipt reminder for %s: %v", sub.Code(), err)
		}
	}
}
