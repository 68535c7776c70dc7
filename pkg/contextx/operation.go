package contextx

import (
	"context"
	"fmt"
)

// OperationID помечает контекст изменяющего вызова, который ещё выполняется.
type OperationID string

type contextKeyOperationID struct{}

func (o OperationID) String() string {
	return string(o)
}

func WithOperationID(ctx context.Context, operationID OperationID) context.Context {
	return context.WithValue(ctx, contextKeyOperationID{}, operationID)
}

func OperationIDFromContext(ctx context.Context) (OperationID, error) {
	operationID, ok := ctx.Value(contextKeyOperationID{}).(OperationID)
	if !ok {
		return "", fmt.Errorf("operation id: %w", ErrNoValue)
	}

	return operationID, nil
}
