package repository

import "context"

// Transactor runs fn inside a single store transaction. Repository calls made
// with the context passed to fn join that transaction; fn returning an error
// rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
