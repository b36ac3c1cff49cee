package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrAuthFailed = errors.New("authentication failed")

// Principal is the stable identity the provider resolves for a request.
// CustomerID keys every cart and order operation.
type Principal struct {
	CustomerID string
}

// Provider is the external identity system. Registration, passwords and
// OTP delivery live entirely behind it.
type Provider interface {
	Authenticate(ctx context.Context, credentials string) (*Principal, error)
	VerifyOTP(ctx context.Context, customerID, otp string) (bool, error)
}

// StaticProvider accepts tokens of the form "customer:<id>". It stands in
// for a real identity service in local and test environments.
type StaticProvider struct{}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

func (p *StaticProvider) Authenticate(_ context.Context, credentials string) (*Principal, error) {
	id, ok := strings.CutPrefix(credentials, "customer:")
	if !ok || id == "" {
		return nil, ErrAuthFailed
	}
	return &Principal{CustomerID: id}, nil
}

func (p *StaticProvider) VerifyOTP(_ context.Context, _, otp string) (bool, error) {
	return otp != "", nil
}
