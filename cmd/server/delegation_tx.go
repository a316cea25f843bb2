package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/tx"
)

const defaultConfirmTxTimeout = 5 * time.Second

// delegationPostgresTx runs Confirm's two-record update in one transaction.
// The transaction rides the context, so the postgres user store picks it up
// and takes FOR UPDATE row locks on reads.
type delegationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newDelegationPostgresTx(db *sql.DB) *delegationPostgresTx {
	return &delegationPostgresTx{db: db}
}

func (t *delegationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultConfirmTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}
