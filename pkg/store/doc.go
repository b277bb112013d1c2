// Package store persists finished run state in Redis.
//
// Two things are kept:
//
//   - variety history per category, so a category keeps cycling through its
//     themes across runs instead of starting over every time
//   - batch summaries, one per run ID, plus a capped list of recent run IDs
//
// Nothing in-flight is persisted; a crashed run leaves no state behind.
//
// Key Format:
//
//	{prefix}:variety:{category}   JSON array of used items
//	{prefix}:batch:{run_id}       JSON observe.BatchSummary
//	{prefix}:batches              list of recent run IDs, newest first
//
// Example:
//
//	client, err := store.Connect(ctx, "redis://localhost:6379/0")
//	history := store.NewHistoryStore(client, store.DefaultConfig(), logger)
//	if _, err := history.Load(ctx, tracker); err != nil {
//	    log.Warn().Err(err).Msg("Starting with empty variety history")
//	}
package store
