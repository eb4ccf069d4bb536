package payments

import (
	"context"
	"math/rand"
)

// Gateway resolves a settlement attempt to an outcome. Real payment-provider
// integration is out of scope; implementations stand in for it.
type Gateway interface {
	Authorize(ctx context.Context, orderID string, amountCents int64) (bool, error)
}

// MockGateway approves a configurable fraction of settlement attempts.
type MockGateway struct {
	successRate float64
	roll        func() float64
}

func NewMock(successRate float64) *MockGateway {
	if successRate < 0 {
		successRate = 0
	}
	if successRate > 1 {
		successRate = 1
	}
	return &MockGateway{successRate: successRate, roll: rand.Float64}
}

func (g *MockGateway) Authorize(_ context.Context, _ string, _ int64) (bool, error) {
	return g.roll() < g.successRate, nil
}
