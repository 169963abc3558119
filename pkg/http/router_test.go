package xhttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"
)

func serveRoute(r *Router, method, path string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	r.Handler(ctx)
	return ctx
}

func TestDefaultRouter_JSONErrors(t *testing.T) {
	r := CreateDefaultRouter()
	r.GET("/console/session", func(ctx *RequestCtx) { ctx.SetStatusCode(StatusOK) })

	ctx := serveRoute(r, "GET", "/console/missing")
	assert.Equal(t, StatusNotFound, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"error":"no route for /console/missing","kind":"http"}`, string(ctx.Response.Body()))

	ctx = serveRoute(r, "DELETE", "/console/session")
	assert.Equal(t, StatusMethodNotAllowed, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "DELETE is not allowed")

	ctx = serveRoute(r, "GET", "/console/session")
	assert.Equal(t, StatusOK, ctx.Response.StatusCode())
}

func TestMiddlewareOrder(t *testing.T) {
	e := NewServer(DefaultServerOption)
	var order []string
	mark := func(name string) MiddlewareFunc {
		return func(next RequestHandler) RequestHandler {
			return func(ctx *RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	e.Use(mark("first"))
	e.Use(mark("second"))
	e.GET("/health", func(ctx *RequestCtx) { order = append(order, "handler") })

	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/health")
	e.Handler()(ctx)

	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
