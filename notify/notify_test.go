package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeMail struct{ sent []*gomail.Message }

func (f *fakeMail) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return nil
}

type fakeChat struct {
	texts []string
	err   error
}

func (f *fakeChat) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, f.err
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber: "ORD-TEST-ABC123",
		Items: []models.OrderItem{
			{Name: "Blue Dream 3.5g", Price: decimal.RequireFromString("35"), Quantity: 2},
		},
		DeliveryAddress: models.Address{HouseNumber: "12", Street: "Main St", Apartment: "4B", City: "Minneapolis", State: "MN", Zip: "55401"},
		ContactPhone:    "6125550100",
		Notes:           "call on arrival",
		Subtotal:        decimal.RequireFromString("70"),
		Tax:             decimal.RequireFromString("7"),
		DeliveryFee:     decimal.RequireFromString("5"),
		Tip:             decimal.RequireFromString("3"),
		Total:           decimal.RequireFromString("85"),
	}
}

func TestRenderText(t *testing.T) {
	text := renderText(KindTextOrderReceived, sampleOrder())

	assert.Contains(t, text, "New text order ORD-TEST-ABC123")
	assert.Contains(t, text, "2 x Blue Dream 3.5g @ $35.00")
	assert.Contains(t, text, "Tip: $3.00")
	assert.Contains(t, text, "Total: $85.00")
	assert.Contains(t, text, "12 Main St #4B, Minneapolis, MN 55401")
	assert.Contains(t, text, "Notes: call on arrival")
}

func TestEmailOnlyOnConfirmationWithAddress(t *testing.T) {
	mail := &fakeMail{}
	e := &Email{from: "orders@example.com", sender: mail}
	o := sampleOrder()

	require.NoError(t, e.Notify(context.Background(), KindOrderConfirmed, o))
	assert.Empty(t, mail.sent, "no contact email")

	o.ContactEmail = "buyer@example.com"
	require.NoError(t, e.Notify(context.Background(), KindTextOrderReceived, o))
	assert.Empty(t, mail.sent)

	require.NoError(t, e.Notify(context.Background(), KindOrderConfirmed, o))
	require.Len(t, mail.sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, mail.sent[0].GetHeader("To"))
}

func TestMultiJoinsErrors(t *testing.T) {
	ok := &fakeChat{}
	failing := &fakeChat{err: errors.New("chat down")}
	m := Multi{&Telegram{chatID: 1, bot: failing}, &Telegram{chatID: 2, bot: ok}}

	err := m.Notify(context.Background(), KindOrderConfirmed, sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat down")
	assert.Len(t, ok.texts, 1, "a failing notifier does not stop the others")
}
