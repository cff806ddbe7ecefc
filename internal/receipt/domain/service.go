package domain

import (
	"context"
	"errors"
)

// Data is everything printed on a payment receipt.
type Data struct {
	Issuer          string
	Number          string
	IssuedAt        string
	ClientCode      string
	ClientName      string
	ClientDNI       string
	ClientAddress   string
	Method          string
	ReferenceNumber string
	ValidatedAt     string
	Lines           []Line
	Total           string
	Credit          string
}

// Line is one debt settled by the payment.
type Line struct {
	BillingMonth string
	Amount       string
}

type Renderer interface {
	Render(ctx context.Context, data Data) ([]byte, error)
}

type Service interface {
	// Render builds the PDF receipt of a validated payment.
	Render(ctx context.Context, paymentID string) ([]byte, error)
}

var ErrNotValidated = errors.New("payment_not_validated")
