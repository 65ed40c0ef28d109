package jobs

import (
	"fmt"
	"log"

	"github.com/anjiri1684/edirpay/services"
)

func (j *Jobs) ExpirePendingSlots() {
	log.Println("Running job: ExpirePendingSlots...")
	ctx, cancel := j.context()
	defer cancel()

	expired, err := j.ledger.ExpireAwaiting(ctx, j.now().Add(-j.cfg.PendingTTL))
	if err != nil {
		log.Printf("Error expiring pending slots: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, sub := range expired {
		if err := j.notifier.Notify(ctx, sub.OwnerID, fmt.Sprintf(services.MsgPendingExpired, sub.Code())); err != nil {
			log.Printf("🔥 expiry notice for %s: %v", sub.Code(), err)
		}
	}
	log.Printf("Expired %d pending slot(s).", len(expired))
}
