package application

import "context"

// UseCase is a single application operation driven by a command.
type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}
