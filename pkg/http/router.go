package xhttp

import (
	"strconv"

	"github.com/fasthttp/router"
)

type Router = router.Router

// CreateDefaultRouter returns the console router. Unknown routes and methods
// answer with the same JSON error shape as the handlers; OPTIONS is left to
// the CORS middleware.
func CreateDefaultRouter() *Router {
	r := router.New()
	r.RedirectTrailingSlash = true
	r.RedirectFixedPath = true
	r.SaveMatchedRoutePath = true
	r.HandleOPTIONS = false
	r.HandleMethodNotAllowed = true
	r.NotFound = NotFoundHandler
	r.MethodNotAllowed = MethodNotAllowedHandler
	return r
}

func NotFoundHandler(ctx *RequestCtx) {
	routeError(ctx, StatusNotFound, "no route for "+string(ctx.Path()))
}

func MethodNotAllowedHandler(ctx *RequestCtx) {
	routeError(ctx, StatusMethodNotAllowed, string(ctx.Method())+" is not allowed on "+string(ctx.Path()))
}

func routeError(ctx *RequestCtx, code int, text string) {
	ctx.SetStatusCode(code)
	ctx.SetContentType("application/json")
	ctx.SetBodyString(`{"error":` + strconv.Quote(text) + `,"kind":"http"}`)
}
