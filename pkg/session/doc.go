// Package session provides the session value type and its storage backends.
//
// A Session is a random identifier plus a map of values. The application
// container creates or loads one per request when sessions are enabled, hands
// it to handlers, and writes it back after routing.
//
// Three stores are provided:
//
//   - MemoryStore keeps encoded sessions in a map; suitable for a single process.
//   - RedisStore keeps them under prefixed keys with native TTLs.
//   - PostgresStore keeps them in a "sessions" table created by Migrate.
//
// Stores that cannot expire entries on their own implement Collector; the
// application schedules GC for them. Stores backed by a network service
// implement Pinger, which feeds the readiness endpoint.
//
// Values are persisted as JSON. After a round trip numbers come back as
// float64 and structs as map[string]any:
//
//	n := session.ValueOr[float64](sess, "visits", 0)
//	sess.Set("visits", n+1)
package session
