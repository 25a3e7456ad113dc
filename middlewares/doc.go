// Package middlewares provides the built-in middleware modules.
//
// Register installs them under their identifiers. A module runs only when
// its identifier appears in modules.middleware, in the listed order:
//
//	modules:
//	  middleware: [requestid, secure-headers, cors, locale, metrics]
//
// # Request ID
//
// requestid keeps an upstream X-Request-ID (or X-Correlation-ID) or generates
// a UUID, stores it on the request and echoes it in X-Request-ID. Pass
// RequestIDExtractor to the logger to tag every record with it:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor())
//
// # CORS
//
// cors adds Cross-Origin Resource Sharing headers and answers preflight
// requests with 204. The cors.origins setting overrides the origin list:
//
//	middlewares.Register(middlewares.WithCORSOptions(
//	    middlewares.WithAllowOrigins("https://app.example.com"),
//	    middlewares.WithAllowCredentials(),
//	))
//
// # Locale
//
// locale matches the ?lang= parameter, the lang cookie and Accept-Language
// against locale.supported, falling back to site.language. Handlers read the
// result with GetLocale.
//
// # Metrics
//
// metrics counts requests and observes latency and response size per matched
// route when the response is sent. Collectors live on a private registry
// unless WithMetrics supplies one; the scrape endpoint is mounted at /metrics.
//
// # Secure headers
//
// secure-headers sets X-Content-Type-Options, X-Frame-Options,
// Referrer-Policy and friends, plus Strict-Transport-Security on secure
// requests.
package middlewares
