package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/AresGn/Bon-Plan-CBD-sub001/internal/models"
)

// SendOrderConfirmation sends the post-payment confirmation for an order.
func SendOrderConfirmation(ctx context.Context, provider Provider, order *models.Order) error {
	if provider == nil {
		return fmt.Errorf("email provider is required")
	}
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.Email == "" {
		return fmt.Errorf("order %s has no customer email", order.ID)
	}

	subject := fmt.Sprintf("Confirmation de commande %s", order.OrderNumber)
	return provider.SendEmail(ctx, &Email{
		To:      order.Email,
		Subject: subject,
		Text:    orderConfirmationText(order),
	})
}

func orderConfirmationText(order *models.Order) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Merci pour votre commande %s !\n\n", order.OrderNumber)
	b.WriteString("Récapitulatif :\n")
	for _, item := range order.Items {
		name := "article"
		if item.Product != nil && item.Product.Name != "" {
			name = item.Product.Name
		}
		fmt.Fprintf(&b, "  - %d x %s — %s €\n", item.Quantity, name, item.Total.StringFixed(2))
	}

	fmt.Fprintf(&b, "\nSous-total : %s €\n", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Livraison : %s €\n", order.Shipping.StringFixed(2))
	fmt.Fprintf(&b, "TVA : %s €\n", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Total : %s €\n", order.Total.StringFixed(2))

	if addr := order.ShippingAddress; addr != nil {
		b.WriteString("\nAdresse de livraison :\n")
		if addr.Name != "" {
			fmt.Fprintf(&b, "  %s\n", addr.Name)
		}
		fmt.Fprintf(&b, "  %s\n", addr.Line1)
		if addr.Line2 != "" {
			fmt.Fprintf(&b, "  %s\n", addr.Line2)
		}
		fmt.Fprintf(&b, "  %s %s\n", addr.PostalCode, addr.City)
		if addr.Country != "" {
			fmt.Fprintf(&b, "  %s\n", addr.Country)
		}
	}

	b.WriteString("\nVotre commande est en cours de préparation.\n")
	return b.String()
}
