// Package pipeline runs a batch of work units through a processor under
// quota admission.
//
// Two runners share one contract. Sequential processes admitted units one at
// a time in input order. Concurrent admits units in input order as well, then
// processes them on up to MaxConcurrency goroutines. In both modes:
//
//   - a unit rejected by the quota limiter is skipped and never processed
//   - every admitted unit yields exactly one ProcessedUnit, failed or not
//   - a processed unit counts against quota whether it succeeded or not
//   - ProcessedUnits is sorted by sequence number
//   - units whose processing was cancelled are absent from the result and
//     release their quota reservation
//
// Example:
//
//	runner := pipeline.NewConcurrent(proc, limiter, tracker, pipeline.Config{
//	    MaxConcurrency: 5,
//	    Logger:         logging.NewLogger("pipeline"),
//	})
//	result, err := runner.Run(ctx, units)
package pipeline
