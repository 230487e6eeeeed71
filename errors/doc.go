// Package errors provides structured error types for the compiler.
//
// Errors are categorized by Phase (where in the pipeline the error occurred)
// and Kind (error category). The Error type includes context: a path into the
// program or binary, the offending value, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindOverflow).
//		Path("section", "code").
//		Detail("body exceeds section limit").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfBounds(errors.PhaseValidate, path, 10, 5)
//	err := errors.Instantiation("demo", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
