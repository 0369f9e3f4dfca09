package breeze

// MiddlewareFactory defers construction of a Middleware until the Scope
// it will run under is known. Materialization fails if factory returns an
// error — a misconfigured middleware (e.g. StaticFiles pointed at a root
// that cannot be statted) is reported at Build time, not at first
// request.
type MiddlewareFactory func(scope Scope) (Middleware, error)

// StackBuilder accumulates deferred middleware factories in registration
// order and materializes them into a Stack once the enclosing Scope is
// known.
type StackBuilder struct {
	factories []MiddlewareFactory
}

// NewStackBuilder returns an empty StackBuilder.
func NewStackBuilder() *StackBuilder {
	return &StackBuilder{}
}

// Use appends a deferred middleware factory.
func (b *StackBuilder) Use(f MiddlewareFactory) {
	b.factories = append(b.factories, f)
}

// UseFunc appends a Middleware that needs no scope-dependent setup.
func (b *StackBuilder) UseFunc(mw Middleware) {
	b.Use(func(Scope) (Middleware, error) { return mw, nil })
}

// Build resolves every registered factory against scope and returns the
// materialized Stack, or the first error encountered.
func (b *StackBuilder) Build(scope Scope) (*Stack, error) {
	st := &Stack{Base: scope.Base, Terminator: NotFoundHandler}

	for _, f := range b.factories {
		mw, err := f(scope)
		if err != nil {
			return nil, err
		}
		st.Middlewares = append(st.Middlewares, mw)
	}

	return st, nil
}
