// Package http provides HTTP handlers and middleware for the trainer scheduler.
//
// The router exposes the following endpoints:
//   - GET /api/events, POST /api/events, PATCH /api/events/{id},
//     DELETE /api/events/{id}, GET /api/trainers, PUT /api/trainers/{id}:
//     the event/trainer repository contract. Every response is the
//     repository.Envelope {"success","data","error"}; payloads are the wire
//     records of package repository.
//   - GET /schedule/events (filters: trainer, from, to, q), POST /schedule/events,
//     GET|PATCH|DELETE /schedule/events/{id}, POST /schedule/events/{id}/status:
//     schedule store queries and mutations exchanging the `eventDTO` payload
//     defined in dto.go. Mutation responses include conflict warnings.
//   - GET /schedule/conflicts, GET /schedule/availability, GET /schedule/trainers,
//     GET /schedule/trainers/{id}/next-slot: conflict and availability queries.
//   - GET /schedule/analytics, GET /schedule/state, POST /schedule/refresh.
//   - GET /schedule/updates: WebSocket stream of store updates.
//   - GET /healthz, GET /metrics.
//
// Store errors map to 422 (validation), 404 (not found), 409 (conflict under
// the enforce policy) and 502 (repository unreachable).
package http
