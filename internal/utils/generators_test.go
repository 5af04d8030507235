package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-storefront/internal/utils"
)

func TestGenerateRequestID(t *testing.T) {
	orderID := "abc-123-def"

	id := utils.GenerateRequestID(orderID, 32)
	assert.Len(t, id, 32)
	assert.True(t, strings.HasPrefix(id, "abc123def"), "dashes should be stripped from the prefix")

	other := utils.GenerateRequestID(orderID, 32)
	assert.NotEqual(t, id, other, "two attempts for the same order must not collide")
	assert.Equal(t, id[:9], other[:9], "prefix is deterministic per order")
}

func TestGenerateRequestIDShortLimit(t *testing.T) {
	id := utils.GenerateRequestID("order", 8)
	assert.Len(t, id, 8)
}

func TestGenerateOrderIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := utils.GenerateOrderID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestGenerateReceiptID(t *testing.T) {
	assert.True(t, strings.HasPrefix(utils.GenerateReceiptID(), "receipt_order_"))
}
