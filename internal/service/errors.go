package service

import "errors"

var (
	ErrEmptyCart             = errors.New("cart is empty, nothing to place")
	ErrInvalidState          = errors.New("operation illegal for current order status")
	ErrUnauthorized          = errors.New("order does not belong to this customer")
	ErrVerificationFailed    = errors.New("payment verification failed at provider")
	ErrMissingTransactionRef = errors.New("order has no transaction reference, initiate payment first")
	ErrInvalidQuantity       = errors.New("quantity must be a positive integer")
	ErrInvalidAmount         = errors.New("fee amounts must be non-negative")
)
