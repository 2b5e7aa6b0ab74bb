package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
)

type txKey struct{}

// txState carries the open transaction and the writes queued against it.
// Firestore rejects reads after writes within a transaction, so writes are
// applied only once the callback has finished reading.
type txState struct {
	tx     *firestore.Transaction
	writes []func(*firestore.Transaction) error
}

func txFrom(ctx context.Context) *txState {
	st, _ := ctx.Value(txKey{}).(*txState)
	return st
}

// InTransaction reports whether ctx belongs to a running transaction.
func InTransaction(ctx context.Context) bool { return txFrom(ctx) != nil }

func (st *txState) queue(write func(*firestore.Transaction) error) {
	st.writes = append(st.writes, write)
}

func (st *txState) flush() error {
	for _, write := range st.writes {
		if err := write(st.tx); err != nil {
			return err
		}
	}
	st.writes = nil
	return nil
}
