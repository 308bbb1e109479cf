package core

import "context"

// Transactor runs a unit of work atomically against the Entity Store.
// Repositories called with the ctx handed to fn take part in the same transaction;
// any error returned by fn rolls every write back.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
