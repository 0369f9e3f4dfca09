package middleware

import (
	"strings"
	"testing"

	"github.com/rowanco/breeze"
	"github.com/stretchr/testify/assert"
)

func htmlResponse(body string) *breeze.Response {
	r := breeze.NewResponse(breeze.StatusOK)
	r.Headers.Set(breeze.HeaderContentType, "text/html; charset=utf-8")
	r.Body = []byte(body)
	return r
}

func TestInjectorInsertsBeforeClosingBody(t *testing.T) {
	mw := Injector()
	req := &breeze.Request{}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		return htmlResponse("<html><body>hi</body></html>")
	})

	body := string(res.Body)
	assert.Contains(t, body, "<script>")
	assert.True(t, len(body) > len("<html><body>hi</body></html>"))
	assert.Contains(t, body, "hi<script>")
	assert.True(t, strings.HasSuffix(body, "</body></html>"))
}

func TestInjectorAppendsWhenNoBodyTag(t *testing.T) {
	mw := Injector()
	req := &breeze.Request{}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		return htmlResponse("<html>no body tag</html>")
	})

	assert.Contains(t, string(res.Body), "<script>")
}

func TestInjectorSkipsNonHTML(t *testing.T) {
	mw := Injector()
	req := &breeze.Request{}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		r := breeze.NewResponse(breeze.StatusOK)
		r.Headers.Set(breeze.HeaderContentType, "application/json")
		r.Body = []byte(`{"a":1}`)
		return r
	})

	assert.Equal(t, `{"a":1}`, string(res.Body))
}
