// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package txutil provides safe transaction-encapsulation functions which have
// retry semantics as necessary.
package txutil

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"storj.io/tracmeta/shared/dbutil"
	"storj.io/tracmeta/shared/tagsql"
)

var mon = monkit.Package()

// maxAttempts bounds how many times a transaction callback may run before a
// transient failure is handed back to the caller.
const maxAttempts = 3

// retryBackOff paces restarts of serialization-failed transactions.
// BackOff implementations are stateful; always return a fresh instance.
func retryBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = 250 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	return bo
}

// WithTx starts a transaction on the given database. While in the transaction,
// fn is called with a handle to the transaction in order to make use of it. If
// fn returns an error, the transaction is rolled back. If fn returns nil, the
// transaction is committed.
//
// Serialization failures, deadlocks and busy signals restart the transaction
// from scratch, so if fn has any side effects outside of changes to the
// database, they must be idempotent.
func WithTx(ctx context.Context, db tagsql.DB, txOpts *sql.TxOptions, fn func(context.Context, tagsql.Tx) error) (err error) {
	defer mon.Task()(&ctx)(&err)

	bo := retryBackOff()
	for attempt := 1; ; attempt++ {
		err, rollbackErr := withTxOnce(ctx, db, txOpts, fn)
		if attempt < maxAttempts && dbutil.IsTransient(err) {
			if wait := bo.NextBackOff(); wait != backoff.Stop && sleep(ctx, wait) == nil {
				mon.Event(fmt.Sprintf("transaction_retry_%d", attempt))
				continue
			}
		}
		mon.IntVal("transaction_retries").Observe(int64(attempt - 1))
		return errs.Wrap(errs.Combine(err, rollbackErr))
	}
}

// withTxOnce creates a transaction, ensures that it is eventually released
// (commit or rollback) and passes it to the provided callback. It does not
// handle retries or anything, delegating that to callers.
func withTxOnce(ctx context.Context, db tagsql.DB, txOpts *sql.TxOptions, fn func(context.Context, tagsql.Tx) error) (err, rollbackErr error) {
	defer mon.Task()(&ctx)(&err)

	tx, err := db.BeginTx(ctx, txOpts)
	if err != nil {
		return errs.Wrap(err), nil
	}
	defer func() {
		if err == nil {
			err = tx.Commit()
		} else {
			rollbackErr = tx.Rollback()
		}
	}()

	return fn(ctx, tx), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
