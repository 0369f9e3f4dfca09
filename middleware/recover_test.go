package middleware

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rowanco/breeze"
	"github.com/rowanco/breeze/internal/blog"
	"github.com/stretchr/testify/assert"
)

func TestRecoverCatchesPanic(t *testing.T) {
	var buf bytes.Buffer
	log := blog.New()
	log.SetOutput(&buf)

	mw := Recover(RecoverOptions{Log: log})
	req := &breeze.Request{URI: breeze.URI{Path: "/boom"}}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		panic(errors.New("kaboom"))
	})

	assert.Equal(t, breeze.StatusInternalServerError, res.Status)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "kaboom")
}

func TestRecoverPassesThroughWithoutPanic(t *testing.T) {
	mw := Recover(RecoverOptions{})
	req := &breeze.Request{URI: breeze.URI{Path: "/ok"}}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		return breeze.FromStatus(breeze.StatusOK)
	})

	assert.Equal(t, breeze.StatusOK, res.Status)
}

func TestRecoverCatchesNonErrorPanic(t *testing.T) {
	mw := Recover(RecoverOptions{})
	req := &breeze.Request{URI: breeze.URI{Path: "/boom"}}

	res := mw(req, func(req *breeze.Request) *breeze.Response {
		panic("string panic")
	})

	assert.Equal(t, breeze.StatusInternalServerError, res.Status)
}
