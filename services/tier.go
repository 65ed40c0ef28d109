package services

import "github.com/anjiri1684/edirpay/models"

const (
	proThreshold   = 5
	eliteThreshold = 12
)

// TierFor maps a member's number of approved payments to a tier.
func TierFor(approvedPayments int64) string {
	switch {
	case approvedPayments >= eliteThreshold:
		return models.TierElite
	case approvedPayments >= proThreshold:
		return models.TierPro
	default:
		return models.TierBasic
	}
}
