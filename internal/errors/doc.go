// Package errors provides structured errors for the hall-runner service.
//
// Errors carry a Code, a human readable message, optional metadata and an
// optional wrapped cause. Codes map onto both HTTP status codes and gRPC
// codes so handlers never need to inspect error strings.
//
// # Basic Usage
//
// Creating errors:
//
//	err := errors.NotFound("hall settings not found")
//	err := errors.InvalidArgumentf("invalid floor: %d", floor)
//
// Adding metadata:
//
//	err := errors.AlreadyExists("account is already running").
//	    WithMeta("account_id", accountID).
//	    WithMeta("owner", user)
//
// Wrapping errors:
//
//	if err := repo.Get(ctx, input); err != nil {
//	    return errors.Wrap(err, "failed to load hall settings")
//	}
//
// Wrap keeps the code of a wrapped *Error. Use WrapWithCode to change it:
//
//	if err == redis.Nil {
//	    return errors.WrapWithCode(err, errors.CodeNotFound, "combat counts not found")
//	}
//
// # Error Checking
//
//	if errors.IsNotFound(err) {
//	    // fall back to defaults
//	}
//
//	code := errors.GetCode(err)
//	message := errors.GetMessage(err)
//	meta := errors.GetMeta(err)
//
// # Validation Errors
//
//	vb := errors.NewValidationBuilder()
//	errors.ValidateRequired("user", input.User, vb)
//	errors.ValidateRange("max_workers", cfg.MaxWorkers, 1, 64, vb)
//	if err := vb.Build(); err != nil {
//	    return err
//	}
//
// # Transport Integration
//
// HTTP handlers write errors with WriteHTTP, which uses Code.HTTPStatus and
// renders a small JSON body. The gRPC server converts errors with
// ToGRPCError in a unary interceptor.
//
// # Layer-Specific Guidelines
//
// Repository layer:
//   - Return NotFound for missing keys or rows
//   - Include relevant IDs in metadata
//   - Wrap driver errors with context
//
// Orchestrator layer:
//   - Validate inputs and return InvalidArgument errors
//   - Return AlreadyExists for busy accounts
//   - Return FailedPrecondition when a session cannot be started
//
// Handler layer:
//   - Convert errors to HTTP or gRPC status
//   - Log internal errors for debugging
package errors
