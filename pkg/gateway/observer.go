package gateway

import (
	"context"
	"fmt"
)

// Observer is notified after each Response is finalized. Observers run on
// the request goroutine; errors and panics are logged and ignored.
type Observer interface {
	ObserveResponse(ctx context.Context, req Request, resp Response) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, req Request, resp Response) error

// ObserveResponse calls f.
func (f ObserverFunc) ObserveResponse(ctx context.Context, req Request, resp Response) error {
	return f(ctx, req, resp)
}

func (g *Gateway) notify(ctx context.Context, req Request, resp Response) {
	for _, o := range g.observers {
		if err := safeObserve(ctx, o, req, resp); err != nil {
			g.logger.WarnContext(ctx, "observer failed",
				"error", &ObserverError{Observer: fmt.Sprintf("%T", o), Err: err})
		}
	}
}

func safeObserve(ctx context.Context, o Observer, req Request, resp Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return o.ObserveResponse(ctx, req, resp)
}
