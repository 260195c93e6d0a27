package firestore

import (
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

// StockLedger is the sole mutation surface for product stock. It operates on
// documents already read by the surrounding transaction, so the conditional
// check rides on the transaction's serialised read set and two checkouts
// racing for the last unit cannot both commit.
type StockLedger struct {
	now func() time.Time
}

// NewStockLedger constructs a StockLedger.
func NewStockLedger() *StockLedger {
	return &StockLedger{now: func() time.Time { return time.Now().UTC() }}
}

// Decrement reduces the product's stock by qty when enough units remain. It
// reports false instead of failing on insufficient stock so the caller
// decides whether that aborts the transaction.
func (l *StockLedger) Decrement(tx *firestore.Transaction, ref *firestore.DocumentRef, doc *productDocument, qty int) (bool, error) {
	if err := l.check(tx, ref, doc, qty); err != nil {
		return false, err
	}
	if doc.Stock < int64(qty) {
		return false, nil
	}
	doc.Stock -= int64(qty)
	doc.UpdatedAt = l.now()
	if err := l.write(tx, ref, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Increment unconditionally raises the product's stock by qty. Used when a
// return approval restores inventory.
func (l *StockLedger) Increment(tx *firestore.Transaction, ref *firestore.DocumentRef, doc *productDocument, qty int) error {
	if err := l.check(tx, ref, doc, qty); err != nil {
		return err
	}
	doc.Stock += int64(qty)
	doc.UpdatedAt = l.now()
	return l.write(tx, ref, doc)
}

func (l *StockLedger) check(tx *firestore.Transaction, ref *firestore.DocumentRef, doc *productDocument, qty int) error {
	if l == nil || tx == nil || ref == nil || doc == nil {
		return errors.New("stock ledger: transaction and product document are required")
	}
	if qty <= 0 {
		return errors.New("stock ledger: quantity must be positive")
	}
	return nil
}

func (l *StockLedger) write(tx *firestore.Transaction, ref *firestore.DocumentRef, doc *productDocument) error {
	return tx.Update(ref, []firestore.Update{
		{Path: "stock", Value: doc.Stock},
		{Path: "updatedAt", Value: doc.UpdatedAt},
	})
}
