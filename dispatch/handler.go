// Package dispatch ingests delivery status updates published by the dispatch
// system on Kafka and applies them to orders.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jwillz7667/dank-deals-delivery-sub001/apperr"
	"github.com/jwillz7667/dank-deals-delivery-sub001/models"
)

// Message is one status update from dispatch.
type Message struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
}

type Transitioner interface {
	Transition(ctx context.Context, number string, to models.OrderStatus) (*models.Order, error)
}

// permanentError marks a message that will never succeed on retry.
type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

func permanent(err error) error { return permanentError{err: err} }

// IsPermanent reports whether retrying err is pointless.
func IsPermanent(err error) bool {
	var p permanentError
	if errors.As(err, &p) {
		return true
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation, apperr.CodeInvalidInput, apperr.CodeOrderNotFound, apperr.CodeInvalidAction:
		return true
	}
	return false
}

// Decode parses and checks a raw message.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return m, permanent(fmt.Errorf("decode dispatch message: %w", err))
	}
	m.OrderNumber = strings.TrimSpace(m.OrderNumber)
	if m.OrderNumber == "" || m.Status == "" {
		return m, permanent(errors.New("dispatch message needs orderNumber and status"))
	}
	return m, nil
}

// Apply returns a HandlerFunc that moves the order through the normal
// transition rules.
func Apply(orders Transitioner) HandlerFunc {
	return func(ctx context.Context, m Message) error {
		to, err := models.ParseOrderStatus(m.Status)
		if err != nil {
			return permanent(err)
		}
		_, err = orders.Transition(ctx, m.OrderNumber, to)
		return err
	}
}
