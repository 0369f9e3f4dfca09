package middleware

import (
	"fmt"
	"runtime"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
)

// RecoverOptions configures Recover.
type RecoverOptions struct {
	// StackSize bounds the captured stack trace. Defaults to 4 KiB.
	StackSize int
	Log       *blog.Logger
}

// Recover returns a middleware that recovers from a panic anywhere
// further down the chain and turns it into a 500 response instead of
// taking down the event loop thread: panics on user-supplied data must
// never escape a handler.
func Recover(opts RecoverOptions) breeze.Middleware {
	if opts.StackSize == 0 {
		opts.StackSize = 4 << 10
	}
	if opts.Log == nil {
		opts.Log = blog.New()
	}

	return func(req *breeze.Request, next breeze.Handler) (resp *breeze.Response) {
		defer func() {
			if r := recover(); r != nil {
				var err error
				if e, ok := r.(error); ok {
					err = e
				} else {
					err = fmt.Errorf("%v", r)
				}

				stack := make([]byte, opts.StackSize)
				n := runtime.Stack(stack, false)

				opts.Log.Error("panic recovered", map[string]interface{}{
					"error": err.Error(),
					"path":  req.URI.Path,
					"stack": string(stack[:n]),
				})

				resp = breeze.FromStatus(breeze.StatusInternalServerError)
			}
		}()

		return next(req)
	}
}
