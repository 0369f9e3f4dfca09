package middleware

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rowanco/breeze"
)

// liveReloadScript is the client injected into every served HTML body.
// It connects to the same origin over WebSocket and, on message:
//   - a path ending ".css" reloads the matching stylesheet link in place
//   - a path ending ".js" triggers a full page reload
//   - a path equal to the current document's pathname triggers a full
//     page reload
const liveReloadScript = `<script>(function(){
var proto = location.protocol === "https:" ? "wss:" : "ws:";
var ws = new WebSocket(proto + "//" + location.host + "/__breeze_livereload");
ws.onmessage = function(ev) {
  var p = ev.data;
  if (p.endsWith(".css")) {
    var links = document.getElementsByTagName("link");
    for (var i = 0; i < links.length; i++) {
      var l = links[i];
      if (l.rel === "stylesheet" && l.href.indexOf(p) !== -1) {
        var next = l.cloneNode();
        next.href = l.href.split("?")[0] + "?t=" + Date.now();
        l.parentNode.insertBefore(next, l.nextSibling);
        setTimeout(function() { l.remove(); }, 100);
        return;
      }
    }
    location.reload();
  } else if (p.endsWith(".js") || p === location.pathname) {
    location.reload();
  }
};
})();</script>`

// Injector splices the live-reload client into every response whose
// Content-Type contains "text/html", just before the closing </body>
// tag (or appended if no such tag is found).
func Injector() breeze.Middleware {
	return func(req *breeze.Request, next breeze.Handler) *breeze.Response {
		resp := next(req)

		if !strings.Contains(resp.Headers.Get(breeze.HeaderContentType), "text/html") {
			return resp
		}

		idx := bytes.LastIndex(resp.Body, []byte("</body>"))
		var body []byte
		if idx < 0 {
			body = append(resp.Body, []byte(liveReloadScript)...)
		} else {
			body = make([]byte, 0, len(resp.Body)+len(liveReloadScript))
			body = append(body, resp.Body[:idx]...)
			body = append(body, []byte(liveReloadScript)...)
			body = append(body, resp.Body[idx:]...)
		}

		resp.Body = body
		resp.Headers.Set(breeze.HeaderContentLength, strconv.Itoa(len(body)))

		return resp
	}
}
