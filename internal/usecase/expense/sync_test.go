package expense

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
)

type fakeStore struct {
	mu         sync.Mutex
	byID       map[string]*Expense
	insertHook func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: map[string]*Expense{}}
}

func (s *fakeStore) FindByLinkedPO(ctx context.Context, poID string) (*Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byID {
		if e.Category == CategoryPurchaseOrder && e.LinkedID != nil && *e.LinkedID == poID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) Exists(ctx context.Context, expenseID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[expenseID]
	return ok, nil
}

func (s *fakeStore) Insert(ctx context.Context, e Expense) error {
	if s.insertHook != nil {
		s.insertHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.Category == CategoryPurchaseOrder && e.LinkedID != nil {
		for _, prev := range s.byID {
			if prev.Category == CategoryPurchaseOrder && prev.LinkedID != nil && *prev.LinkedID == *e.LinkedID {
				return ErrDuplicate
			}
		}
	}
	cp := e
	s.byID[e.ExpenseID] = &cp
	return nil
}

func (s *fakeStore) DeleteByLinkedPO(ctx context.Context, poID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, e := range s.byID {
		if e.Category == CategoryPurchaseOrder && e.LinkedID != nil && *e.LinkedID == poID {
			delete(s.byID, id)
			n++
		}
	}
	return n, nil
}

func approval() ApprovalInput {
	return ApprovalInput{
		POID:       "PO-00017",
		TotalCost:  decimal.NewFromInt(12500),
		SupplierID: "SUP-003",
		OrderedBy:  "staff-7",
	}
}

func TestCreateForApproval_InsertsLinkedExpense(t *testing.T) {
	store := newFakeStore()
	sync := NewLedgerSync(store, events.NopPublisher{}, zap.NewNop())

	exp, created, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "EXP-0001", exp.ExpenseID)
	require.Equal(t, CategoryPurchaseOrder, exp.Category)
	require.Equal(t, "PO-00017", *exp.LinkedID)
	require.Equal(t, "SUP-003", exp.PaidTo)
	require.Equal(t, "staff-7", exp.CreatedBy)
	require.True(t, decimal.NewFromInt(12500).Equal(exp.Amount))
}

func TestCreateForApproval_SecondCallNoOps(t *testing.T) {
	store := newFakeStore()
	sync := NewLedgerSync(store, events.NopPublisher{}, zap.NewNop())

	first, created, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ExpenseID, second.ExpenseID)
	require.Len(t, store.byID, 1)
}

func TestCreateForApproval_ProbesPastTakenIDs(t *testing.T) {
	store := newFakeStore()
	store.byID["EXP-0001"] = &Expense{ExpenseID: "EXP-0001", Category: "Utilities"}
	store.byID["EXP-0002"] = &Expense{ExpenseID: "EXP-0002", Category: "Fuel"}
	sync := NewLedgerSync(store, events.NopPublisher{}, zap.NewNop())

	exp, created, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "EXP-0003", exp.ExpenseID)
}

func TestCreateForApproval_ConstraintRaceResolvesToWinner(t *testing.T) {
	store := newFakeStore()
	sync := NewLedgerSync(store, events.NopPublisher{}, zap.NewNop())

	raced := false
	store.insertHook = func() {
		if raced {
			return
		}
		raced = true
		linked := "PO-00017"
		store.mu.Lock()
		store.byID["EXP-0042"] = &Expense{
			ExpenseID: "EXP-0042",
			Category:  CategoryPurchaseOrder,
			LinkedID:  &linked,
		}
		store.mu.Unlock()
	}

	exp, created, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "EXP-0042", exp.ExpenseID)
	require.Len(t, store.byID, 1)
}

func TestRetractForCancellation_Idempotent(t *testing.T) {
	store := newFakeStore()
	sync := NewLedgerSync(store, events.NopPublisher{}, zap.NewNop())

	_, _, err := sync.CreateForApproval(context.Background(), approval())
	require.NoError(t, err)

	require.NoError(t, sync.RetractForCancellation(context.Background(), "PO-00017", "staff-7"))
	require.Empty(t, store.byID)

	// Deleting zero rows is not an error.
	require.NoError(t, sync.RetractForCancellation(context.Background(), "PO-00017", "staff-7"))
}
