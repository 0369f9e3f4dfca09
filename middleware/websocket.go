package middleware

import "github.com/rowanco/breeze"

// WebSocketHandshake validates an incoming request as an RFC 6455
// handshake and, on success, returns the 101 Switching Protocols
// response the event loop recognizes as a pending upgrade. Any other
// request falls through to next. The handshake math itself lives in
// the root package's websocket.go (acceptKey/IsUpgradeRequest/
// HandshakeResponse) since it operates purely on Request/Response and
// needs no middleware-specific state.
func WebSocketHandshake() breeze.Middleware {
	return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
		if !breeze.IsUpgradeRequest(req) {
			return next(req)
		}
		return breeze.HandshakeResponse(req)
	}
}
