// Package scheduler owns deferred work: one-shot broadcast jobs and
// recurring maintenance tasks.
//
// # One-shot jobs
//
// A job binds a payload to a future absolute timestamp. Job ids are derived
// from the creation clock in milliseconds; two jobs created within the same
// millisecond can collide. The registry lives in memory only and does not
// survive a restart. Firing and cancellation race via the registry lock:
// once firing has begun, Cancel reports false.
//
// # Recurring tasks
//
// Maintenance tasks (subscriber stats, WAL checkpoints) are cron entries
// registered before Start. The cron runner and all pending one-shot timers
// stop together on Stop.
package scheduler
