package modules

import (
	"context"
	"slices"

	"github.com/dukex/nodegraph/pkg/models"
)

type stackKey struct{}

// enter records name on the module stack carried by ctx.
// Entering a module already on the stack is a recursive reference.
func enter(ctx context.Context, name string) (context.Context, error) {
	stack, _ := ctx.Value(stackKey{}).([]string)

	if i := slices.Index(stack, name); i >= 0 {
		path := append(slices.Clone(stack[i:]), name)

		return ctx, &models.CycleError{Path: path}
	}

	next := append(slices.Clone(stack), name)

	return context.WithValue(ctx, stackKey{}, next), nil
}

func depth(ctx context.Context) int {
	stack, _ := ctx.Value(stackKey{}).([]string)

	return len(stack)
}
