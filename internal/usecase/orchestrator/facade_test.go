package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
	}{
		{"invalid transition", salesorder.ErrInvalidTransition, KindInvalidTransition, false},
		{"po invalid transition", purchaseorder.ErrInvalidTransition, KindInvalidTransition, false},
		{"stale", purchaseorder.ErrStaleState, KindStaleState, true},
		{"window expired", salesorder.ErrCancellationWindowExpired, KindCancellationExpired, false},
		{"nothing to repurchase", purchaseorder.ErrNothingToRepurchase, KindNothingToRepurchase, false},
		{"cascade failed", purchaseorder.ErrCascadeDeleteFailed, KindCascadeDeleteFailed, false},
		{"not found", salesorder.ErrOrderMissing, KindNotFound, false},
		{"unknown store error", errors.New("connection refused"), KindStoreUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Classify(tt.err)
			require.Equal(t, tt.kind, e.Kind)
			require.Equal(t, tt.retryable, e.Retryable())
			require.NotEmpty(t, e.Message)
			require.ErrorIs(t, e, tt.err)
		})
	}
}

// flakyStore fails the first conditional write with ErrStaleState, as if
// another actor had just advanced the order, then behaves normally.
type flakyStore struct {
	order    *salesorder.Order
	failures int
}

func (s *flakyStore) GetByID(ctx context.Context, orderID string) (*salesorder.Order, error) {
	cp := *s.order
	return &cp, nil
}

func (s *flakyStore) Create(ctx context.Context, in salesorder.CreateInput, total decimal.Decimal) (*salesorder.Order, error) {
	return nil, errors.New("not used")
}

func (s *flakyStore) ApplyTransition(ctx context.Context, orderID, fromStatus string, patch salesorder.TransitionPatch) (*salesorder.Order, error) {
	if s.failures > 0 {
		s.failures--
		return nil, salesorder.ErrStaleState
	}
	s.order.Status = patch.Status
	cp := *s.order
	return &cp, nil
}

func (s *flakyStore) DeleteCascade(ctx context.Context, orderIDs []string) (int64, error) {
	return 0, nil
}

type nopDispatcher struct{}

func (nopDispatcher) EnsureDelivery(ctx context.Context, orderID, actorID string) (string, error) {
	return "DEL-20250601-0001", nil
}

func TestTransitionSalesOrder_RetriesOnceOnStaleState(t *testing.T) {
	store := &flakyStore{
		order: &salesorder.Order{
			OrderID:     "OID-0001",
			Status:      salesorder.StatusPending,
			DateOrdered: time.Now(),
		},
		failures: 1,
	}
	policy := salesorder.NewCancellationPolicy(3*time.Hour, []string{"admin"})
	sales := salesorder.NewMachine(store, nopDispatcher{}, policy, events.NopPublisher{}, zap.NewNop())
	f := New(sales, nil, zap.NewNop())

	order, err := f.TransitionSalesOrder(context.Background(), TransitionRequest{
		EntityID:     "OID-0001",
		TargetStatus: salesorder.StatusConfirmed,
		ActorID:      "staff-1",
		ActorRole:    "staff",
	})
	require.NoError(t, err)
	require.Equal(t, salesorder.StatusConfirmed, order.Status)
}

func TestTransitionSalesOrder_SecondStaleSurfaces(t *testing.T) {
	store := &flakyStore{
		order: &salesorder.Order{
			OrderID:     "OID-0001",
			Status:      salesorder.StatusPending,
			DateOrdered: time.Now(),
		},
		failures: 2,
	}
	policy := salesorder.NewCancellationPolicy(3*time.Hour, []string{"admin"})
	sales := salesorder.NewMachine(store, nopDispatcher{}, policy, events.NopPublisher{}, zap.NewNop())
	f := New(sales, nil, zap.NewNop())

	_, err := f.TransitionSalesOrder(context.Background(), TransitionRequest{
		EntityID:     "OID-0001",
		TargetStatus: salesorder.StatusConfirmed,
		ActorID:      "staff-1",
		ActorRole:    "staff",
	})
	require.Error(t, err)

	var typed *Error
	require.ErrorAs(t, err, &typed)
	require.Equal(t, KindStaleState, typed.Kind)
}
