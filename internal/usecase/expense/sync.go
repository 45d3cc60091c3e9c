package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bayuh-ra/bbglo-backend/internal/events"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate is returned by the store when the partial unique index
	// on (linked_id) for Purchase Order expenses rejects an insert.
	ErrDuplicate = errors.New("expense already linked to purchase order")
)

const CategoryPurchaseOrder = "Purchase Order"

type Expense struct {
	ExpenseID string          `json:"expense_id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	PaidTo    string          `json:"paid_to"`
	LinkedID  *string         `json:"linked_id,omitempty"`
	CreatedBy string          `json:"created_by"`
}

type Store interface {
	// FindByLinkedPO returns the non-retracted Purchase Order expense for
	// the PO, or (nil, nil) when none exists.
	FindByLinkedPO(ctx context.Context, poID string) (*Expense, error)
	Exists(ctx context.Context, expenseID string) (bool, error)
	Insert(ctx context.Context, e Expense) error
	// DeleteByLinkedPO removes Purchase Order expenses linked to the PO and
	// returns how many rows went away. Zero is not an error.
	DeleteByLinkedPO(ctx context.Context, poID string) (int64, error)
}

// ApprovalInput carries the PO fields mirrored into the ledger entry.
type ApprovalInput struct {
	POID       string
	TotalCost  decimal.Decimal
	SupplierID string
	OrderedBy  string
}

// LedgerSync keeps the expense ledger consistent with purchase order
// approval and cancellation.
type LedgerSync struct {
	store  Store
	events events.Publisher
	log    *zap.Logger
	now    func() time.Time
}

func NewLedgerSync(store Store, pub events.Publisher, log *zap.Logger) *LedgerSync {
	return &LedgerSync{
		store:  store,
		events: pub,
		log:    log,
		now:    time.Now,
	}
}

// CreateForApproval mirrors an approved PO into the ledger. An existing
// linked expense makes this a successful no-op, so approving twice (or two
// approvers racing) never double-books the cost. Returns the expense and
// whether this call created it.
func (s *LedgerSync) CreateForApproval(ctx context.Context, in ApprovalInput) (*Expense, bool, error) {
	if in.POID == "" {
		return nil, false, ErrInvalidInput
	}

	existing, err := s.store.FindByLinkedPO(ctx, in.POID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	expenseID, err := s.nextExpenseID(ctx)
	if err != nil {
		return nil, false, err
	}

	// The ID probe above took time; re-check before inserting. The store
	// constraint remains the authoritative guard for what slips through.
	existing, err = s.store.FindByLinkedPO(ctx, in.POID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	linked := in.POID
	exp := Expense{
		ExpenseID: expenseID,
		Category:  CategoryPurchaseOrder,
		Amount:    in.TotalCost,
		Date:      s.now(),
		PaidTo:    in.SupplierID,
		LinkedID:  &linked,
		CreatedBy: in.OrderedBy,
	}

	if err := s.store.Insert(ctx, exp); err != nil {
		if errors.Is(err, ErrDuplicate) {
			winner, ferr := s.store.FindByLinkedPO(ctx, in.POID)
			if ferr != nil {
				return nil, false, ferr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	if perr := s.events.Publish(ctx, events.New(events.TypeExpenseCreated, exp.ExpenseID, in.OrderedBy, map[string]any{
		"linked_id": in.POID,
		"amount":    in.TotalCost.String(),
	})); perr != nil {
		s.log.Warn("event publish failed", zap.String("type", events.TypeExpenseCreated), zap.Error(perr))
	}

	s.log.Info("expense created for approval",
		zap.String("expense_id", exp.ExpenseID),
		zap.String("po_id", in.POID))
	return &exp, true, nil
}

// RetractForCancellation deletes any Purchase Order expense linked to the
// PO. Deleting zero rows is fine; retracting twice is a no-op.
func (s *LedgerSync) RetractForCancellation(ctx context.Context, poID, actorID string) error {
	if poID == "" {
		return ErrInvalidInput
	}

	removed, err := s.store.DeleteByLinkedPO(ctx, poID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}

	if perr := s.events.Publish(ctx, events.New(events.TypeExpenseRetracted, poID, actorID, nil)); perr != nil {
		s.log.Warn("event publish failed", zap.String("type", events.TypeExpenseRetracted), zap.Error(perr))
	}

	s.log.Info("expense retracted", zap.String("po_id", poID), zap.Int64("rows", removed))
	return nil
}

// nextExpenseID probes EXP-0001, EXP-0002, ... until an unused ID is found.
// The format is shared with manually filed expenses in the same table.
func (s *LedgerSync) nextExpenseID(ctx context.Context) (string, error) {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("EXP-%04d", n)
		taken, err := s.store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}
