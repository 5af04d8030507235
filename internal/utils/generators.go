package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID creates a new storefront order identifier.
func GenerateOrderID() string {
	return uuid.NewString()
}

// GenerateReceiptID creates a gateway receipt reference for order creation.
func GenerateReceiptID() string {
	return fmt.Sprintf("receipt_order_%d", time.Now().UnixMilli())
}

// GenerateRequestID builds a courier booking dedup identifier: the sanitized
// client order id as a deterministic prefix, a random UUID-derived suffix,
// truncated to maxLen (the provider's identifier length limit). Two booking
// attempts for the same order therefore share a prefix but never collide.
func GenerateRequestID(clientOrderID string, maxLen int) string {
	var b strings.Builder
	for _, r := range clientOrderID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")

	id := b.String() + suffix
	if maxLen > 0 && len(id) > maxLen {
		id = id[:maxLen]
	}
	return id
}
