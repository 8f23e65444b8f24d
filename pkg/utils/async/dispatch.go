package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/utils/errutil"
)

// Dispatch executes a handler function asynchronously with proper context and panic recovery
//
// Parameters:
//   - ctx: Original context (values will be preserved, but cancellation won't affect the async handler)
//   - handler: Function to execute asynchronously
//
// Behavior:
//   - Creates a new background context with preserved logger
//   - Executes handler in a new goroutine
//   - Recovers from panics and reports them
//   - Reports errors returned by handler
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	newCtx := newBackgroundContext(ctx)

	go func() {
		defer recoverPanic(newCtx, "panic in async handler")

		if err := handler(newCtx); err != nil {
			errutil.Handle(newCtx, err, "error in async handler")
		}
	}()
}

func recoverPanic(ctx context.Context, msg string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		ctxlog.From(ctx).Error(msg,
			"recover", r,
			"stack", string(stack))
		errutil.Handle(ctx, goerr.New("recovered from panic", goerr.V("recover", r)), msg)
	}
}

// newBackgroundContext creates a new background context preserving important values
//
// Preserved values:
//   - ctxlog logger
//
// Returns: New context.Background() with preserved values
func newBackgroundContext(ctx context.Context) context.Context {
	newCtx := context.Background()
	newCtx = ctxlog.With(newCtx, ctxlog.From(ctx))
	return newCtx
}
