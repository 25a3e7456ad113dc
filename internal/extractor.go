package internal

import (
	"fmt"
	"strings"
)

// Source reads one candidate value from a request.
// It returns ("", false) when the value is absent.
type Source = func(req *Request) (string, bool)

// Extractor tries several sources in order and returns the first non-empty
// value. Middleware uses it to find request ids, locales and tokens.
type Extractor struct {
	sources []Source
}

// NewExtractor creates an Extractor over sources, tried in the given order.
func NewExtractor(sources ...Source) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value, or ("", false) if every source
// misses.
func (e Extractor) Extract(req *Request) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(req); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func nonEmpty(v string) (string, bool) { return v, v != "" }

// FromHeader reads a request header.
func FromHeader(name string) Source {
	return func(req *Request) (string, bool) { return nonEmpty(req.Header(name)) }
}

// FromQuery reads a query parameter.
func FromQuery(name string) Source {
	return func(req *Request) (string, bool) { return nonEmpty(req.Query(name)) }
}

// FromCookie reads a cookie.
func FromCookie(name string) Source {
	return func(req *Request) (string, bool) {
		v, err := req.Cookie(name)
		if err != nil {
			return "", false
		}
		return nonEmpty(v)
	}
}

// FromParam reads a route parameter. It only matches after routing.
func FromParam(name string) Source {
	return func(req *Request) (string, bool) { return nonEmpty(req.Param(name)) }
}

// FromForm reads a form field.
func FromForm(name string) Source {
	return func(req *Request) (string, bool) { return nonEmpty(req.Form(name)) }
}

// FromSession reads a session value; non-string values are formatted.
func FromSession(key string) Source {
	return func(req *Request) (string, bool) {
		s := req.Session()
		if s == nil {
			return "", false
		}
		v, ok := s.Get(key)
		if !ok || v == nil {
			return "", false
		}
		if str, ok := v.(string); ok {
			return nonEmpty(str)
		}
		return nonEmpty(fmt.Sprint(v))
	}
}

// FromBearerToken reads the token of an "Authorization: Bearer" header.
func FromBearerToken() Source {
	return func(req *Request) (string, bool) {
		auth := req.Header("Authorization")
		if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
			return "", false
		}
		return nonEmpty(strings.TrimSpace(auth[7:]))
	}
}
