package notify

import (
	"fmt"
	"strings"
)

// HeatAlert is the message sent when the spoilage pass found heat-stressed
// items nearing expiry.
func HeatAlert(items []string) string {
	return fmt.Sprintf("Attention from your Pantry! Due to upcoming hot weather, %s are getting spoiled",
		strings.Join(items, ","))
}

// ExpiryAlert is the routine message for items nearing expiry regardless of
// weather.
func ExpiryAlert(items []string, horizonDays int) string {
	return fmt.Sprintf("Attention from your Pantry! %s are getting spoiled by the next %d days",
		strings.Join(items, ","), horizonDays)
}

// DonationReply wraps the donation contact listing sent back to the user.
func DonationReply(listing string) string {
	return "Thank you for choosing to donate. You can consider the following centers\n" + listing
}

// NothingToDonateReply is sent when a donation request arrives with no
// flagged items in the ledger.
const NothingToDonateReply = "Nothing in your pantry is flagged for donation right now."
