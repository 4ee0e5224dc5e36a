// Package notify sends SMS notifications through an HTTP gateway.
// Delivery is best-effort: callers log failures and carry on, a dead
// gateway never blocks a booking.
package notify
