package breeze

// Handler serves a Request and returns a Response. It must be infallible
// and must not panic — any error a Handler encounters should already have
// been turned into an error Response.
type Handler func(req *Request) *Response

// Middleware processes a Request before (optionally) forwarding it to
// next. A Middleware may return directly, may modify the request or the
// response it gets back from next, or may forward unmodified.
type Middleware func(req *Request, next Handler) *Response

// NotFoundHandler is the default terminator a Stack falls back to once
// every middleware in it has forwarded.
func NotFoundHandler(req *Request) *Response {
	return FromStatus(StatusNotFound)
}

// Action is a route handler that additionally receives the path
// parameters captured by the Matcher: a route group's registered actions
// are Handler-like but receive parameters.
type Action func(req *Request, params Params) *Response
