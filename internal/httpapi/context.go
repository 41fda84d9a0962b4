package httpapi

import "context"

// serverBaseCtx is canceled on process shutdown so in-flight translations
// stop instead of outliving the server. Background until wired.
var serverBaseCtx = context.Background()

// SetBaseContext installs the process-level context handlers derive from.
// Passing nil resets to Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context that ends when either parent does, so a
// handler observes both client disconnect and server shutdown. The cancel
// func releases the watcher and must be deferred by the caller.
func joinContexts(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
