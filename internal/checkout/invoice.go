package checkout

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chiecouture/storefront-backend/pkg/db/models"
)

// renderInvoice produces the plain-text invoice body sent after checkout.
func renderInvoice(order *models.Order) string {
	lines := []string{fmt.Sprintf("Invoice for Order #%s\n", order.ID)}
	for _, item := range order.Items {
		amount := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		lines = append(lines, fmt.Sprintf("- %s (x%d) = $%s", item.ProductName, item.Quantity, amount.StringFixed(2)))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: $%s", order.Total.StringFixed(2)))
	return strings.Join(lines, "\n")
}

func invoiceSubject(order *models.Order) string {
	return fmt.Sprintf("Your Invoice - Order #%s", order.ID)
}
