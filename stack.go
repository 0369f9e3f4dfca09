package breeze

// Stack is an ordered list of middlewares plus an optional base-path
// gate. Invoking a Stack as a Handler threads the request through its
// middlewares in order; after the last, a terminator fires
// (NotFoundHandler by default, or whatever the enclosing Router/Builder
// wired in as "next").
type Stack struct {
	Base        string
	Middlewares []Middleware
	Terminator  Handler
}

// NewStack returns a Stack gated on base (pass "" or "/" for no gate)
// with the given middlewares and NotFoundHandler as its terminator.
func NewStack(base string, middlewares ...Middleware) *Stack {
	return &Stack{Base: base, Middlewares: middlewares, Terminator: NotFoundHandler}
}

// Handle runs req through s with NotFoundHandler as the final terminator.
func (s *Stack) Handle(req *Request) *Response {
	return s.Process(req, NotFoundHandler)
}

// Process runs req through s, falling through to next once every
// middleware has forwarded (or immediately, untouched, if s's base does
// not match req.URI.Path: if S's base matcher does not match
// req.URI.Path, S.Process(req, next) is bitwise identical to next(req).
func (s *Stack) Process(req *Request, next Handler) *Response {
	if !matchesBase(s.Base, req.URI.Path) {
		return next(req)
	}

	return s.chain(0, next)(req)
}

// chain builds the Handler that runs middleware i followed by the rest of
// the chain, terminating in next: S.Handle(req) == m1(req, S') where S'
// is S with m1 removed.
func (s *Stack) chain(i int, next Handler) Handler {
	if i >= len(s.Middlewares) {
		return next
	}
	mw := s.Middlewares[i]
	rest := s.chain(i+1, next)
	return func(req *Request) *Response {
		return mw(req, rest)
	}
}
