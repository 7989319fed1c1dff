// Package broadcast fans a message out to every subscribed user.
//
// Delivery semantics
//
// Fan-out is best-effort and sequential. Each per-recipient failure is
// logged and swallowed; one blocked or broken chat never aborts delivery to
// the rest. There is no retry and no batching; outbound pacing is owned by
// the Telegram adapter.
package broadcast
