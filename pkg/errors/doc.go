// Package errors provides the error types returned by the cluster test clients.
//
// Each error type includes a constructor, Error() method, and a type-checking
// helper using errors.As for proper error unwrapping.
//
// # Error Types Overview
//
//	┌──────────────────────────┬─────────────────────────────────────────────┐
//	│ Error Type               │ Raised when                                 │
//	├──────────────────────────┼─────────────────────────────────────────────┤
//	│ HTTPError                │ a response status is not 2xx                │
//	│ UnexpectedStatusError    │ an exact status assertion fails (IAM)       │
//	│ CommandError             │ a subprocess exits non-zero                 │
//	│ TimeoutError             │ a polling wait runs out of time             │
//	│ InvalidHostError         │ a host string has more than one colon       │
//	│ KeyNotFoundError         │ a CLI configuration property is missing     │
//	│ ResourceNotFoundError    │ a stored command result or bundle is absent │
//	└──────────────────────────┴─────────────────────────────────────────────┘
//
// # HTTPError
//
// Returned by session.Response.CheckStatus. It keeps the method, URL, status
// code and body of the failed request.
//
//	details, err := jobsClient.Details(ctx, "myjob", false)
//	if errors.IsNotFound(err) {
//	    // the job is gone
//	}
//
// # TimeoutError
//
// Polling helpers (jobs.WaitForRun, diagnostics.WaitForDiagnosticsJob,
// cluster.WaitForDCOS) convert an exhausted wait into a TimeoutError:
//
//	Job run failed - operation was not completed in 600 seconds
//
// # Type Checking Pattern
//
//	wrapped := fmt.Errorf("starting job: %w", errors.NewHTTPError("POST", u, 500, ""))
//	errors.IsHTTPError(wrapped) // returns true
package errors
