package courier

import (
	"fmt"
	"strings"

	"ms-storefront/internal/models"
)

// Manifest renders a human-readable package description for courier
// instructions and notifications: "2x Chicken Curry Cut (500g), 1x Mutton Keema".
func Manifest(items []models.CartItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		s := fmt.Sprintf("%dx %s", item.Qty, item.Name)
		if item.WeightG > 0 {
			s += fmt.Sprintf(" (%dg)", item.WeightG)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

// TotalWeightKG sums per-item weight times quantity, converted to kilograms.
func TotalWeightKG(items []models.CartItem) float64 {
	var grams int
	for _, item := range items {
		grams += item.WeightG * item.Qty
	}
	return float64(grams) / 1000
}
