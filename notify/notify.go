// Package notify tells customers and staff about order milestones.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

type Kind string

const (
	KindTextOrderReceived Kind = "text_order_received"
	KindOrderConfirmed    Kind = "order_confirmed"
)

type Notifier interface {
	Notify(ctx context.Context, kind Kind, order *models.Order) error
}

type Nop struct{}

func (Nop) Notify(context.Context, Kind, *models.Order) error { return nil }

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, kind Kind, order *models.Order) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, kind, order); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func subject(kind Kind, o *models.Order) string {
	switch kind {
	case KindTextOrderReceived:
		return "New text order " + o.OrderNumber
	case KindOrderConfirmed:
		return "Order " + o.OrderNumber + " confirmed"
	default:
		return "Order " + o.OrderNumber
	}
}

// renderText is the plain-text body shared by email and chat.
func renderText(kind Kind, o *models.Order) string {
	var b strings.Builder
	b.WriteString(subject(kind, o))
	b.WriteString("\n\n")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d x %s @ $%s\n", it.Quantity, it.Name, it.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: $%s\n", o.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Tax: $%s\n", o.Tax.StringFixed(2))
	fmt.Fprintf(&b, "Delivery: $%s\n", o.DeliveryFee.StringFixed(2))
	if o.Tip.IsPositive() {
		fmt.Fprintf(&b, "Tip: $%s\n", o.Tip.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: $%s\n", o.Total.StringFixed(2))

	a := o.DeliveryAddress
	if a.Complete() {
		b.WriteString("\nDeliver to: ")
		b.WriteString(a.HouseNumber + " " + a.Street)
		if a.Apartment != "" {
			b.WriteString(" #" + a.Apartment)
		}
		fmt.Fprintf(&b, ", %s, %s %s\n", a.City, a.State, a.Zip)
	}
	if o.ContactPhone != "" {
		b.WriteString("Phone: " + o.ContactPhone + "\n")
	}
	if o.DeliveryInstructions != "" {
		b.WriteString("Instructions: " + o.DeliveryInstructions + "\n")
	}
	if o.Notes != "" {
		b.WriteString("Notes: " + o.Notes + "\n")
	}
	return b.String()
}
