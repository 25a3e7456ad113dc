package internal

import "strconv"

// Scalar is the set of types the typed accessors convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the request-scoped value for key as T, or T's zero value.
func ContextValue[T any](req *Request, key any) T {
	v, _ := req.Get(key).(T)
	return v
}

// Param returns a route parameter converted to T, or T's zero value.
func Param[T Scalar](req *Request, name string) T {
	v, _ := parseScalar[T](req.Param(name))
	return v
}

// Query returns a query parameter converted to T, or T's zero value.
func Query[T Scalar](req *Request, name string) T {
	v, _ := parseScalar[T](req.Query(name))
	return v
}

// QueryDefault returns a query parameter converted to T, or def when it is
// missing or does not parse.
func QueryDefault[T Scalar](req *Request, name string, def T) T {
	raw := req.Query(name)
	if raw == "" {
		return def
	}
	v, ok := parseScalar[T](raw)
	if !ok {
		return def
	}
	return v
}

func parseScalar[T Scalar](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
