// Package infuse is a small configuration-driven MVC web framework.
//
// An [App] is built from a settings tree layered over the defaults. The
// settings name everything the app wires at startup: services, the session
// driver, the view engine, the middleware pipeline and the routes.
//
//	app, err := infuse.New(map[string]any{
//	    "site": map[string]any{"title": "Shop", "port": 8080},
//	    "sessions": map[string]any{"enabled": true, "driver": "redis",
//	        "redis-url": "redis://localhost:6379/0"},
//	    "modules": map[string]any{"middleware": []string{"requestid", "locale"}},
//	    "routes": []string{"GET /products/{id} products.show"},
//	},
//	    infuse.WithHandler("products.show", showProduct),
//	    middlewares.Register(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(""); err != nil {
//	    log.Fatal(err)
//	}
//
// # Request lifecycle
//
// Every request goes through [App.HandleRequest]: the hostname is inferred
// on first contact when site.hostname is unset, the session is started, the
// middleware modules listed in modules.middleware run in order, then the
// router. A response left at an error status with no body is filled with the
// "error" view for HTML clients.
//
// # Handlers
//
// Handlers receive the request and the response being built:
//
//	func showProduct(req *infuse.Request, res *infuse.Response) error {
//	    id := infuse.Param[int](req, "id")
//	    if id == 0 {
//	        return infuse.ErrNotFound("no such product")
//	    }
//	    return res.Render(req.Context(), "products/show", map[string]any{"id": id})
//	}
//
// # Middleware
//
// Modules are registered by name and run as fresh instances per request.
// Every listed module runs even after an earlier one set an error status,
// unless the app is built with [WithMiddlewareShortCircuit]. A module that
// returns an error ends the request.
//
//	infuse.WithMiddleware("auth", func() infuse.Middleware {
//	    return infuse.MiddlewareFunc(func(req *infuse.Request, res *infuse.Response) error {
//	        if _, ok := req.Session().Get("user"); !ok {
//	            res.Redirect(http.StatusSeeOther, "/login")
//	        }
//	        return nil
//	    })
//	})
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown, stops session garbage
// collection and closes the session store and every io.Closer service.
package infuse
