// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for each Kind. An ActionableError matches its kind's
// sentinel through errors.Is, so callers never need to type-assert.
var (
	ErrConfig          = errors.New("configuration error")
	ErrRepository      = errors.New("repository error")
	ErrAttribute       = errors.New("attribute error")
	ErrNoMatch         = errors.New("no matching entries")
	ErrExternalCommand = errors.New("external command failed")
	ErrUserAborted     = errors.New("aborted by user")
)

const (
	// KindUnknown is the zero value; it matches no sentinel.
	KindUnknown Kind = iota
	// KindConfig covers missing keys, unparsable JSON and unresolvable paths.
	KindConfig
	// KindRepository covers repositories that cannot be opened or are bare.
	KindRepository
	// KindAttribute covers attribute stack load failures.
	KindAttribute
	// KindNoMatch is a traversal that finished without any match.
	KindNoMatch
	// KindExternalCommand is a git subprocess that exited non-zero.
	KindExternalCommand
	// KindUserAborted is a declined confirmation or cancelled picker.
	KindUserAborted
)

type (
	// Kind classifies an ActionableError.
	Kind int

	// ActionableError is an error with context for user-facing error messages.
	// It provides structured information about what operation failed, what resource
	// was involved, and suggestions for how to fix the issue.
	//
	// Use the ErrorContext builder for convenient construction:
	//
	//	err := issue.NewErrorContext().
	//		WithKind(issue.KindConfig).
	//		WithOperation("load submodule configuration").
	//		WithResource("./sparse.json").
	//		WithSuggestion("Add the SUBMODULE_NAME key").
	//		Wrap(originalErr).
	//		Build()
	ActionableError struct {
		// Kind places the error in the taxonomy.
		Kind Kind

		// Operation describes what was being attempted (e.g., "open repository", "fetch remote tip").
		Operation string

		// Resource identifies the file, path, or entity involved (optional).
		Resource string

		// Suggestions provides hints on how to fix the issue (optional).
		Suggestions []string

		// Cause is the underlying error that triggered this error (optional).
		Cause error
	}

	// ErrorContext is a builder for constructing ActionableError instances.
	// It provides a fluent API for setting error context incrementally.
	ErrorContext struct {
		kind        Kind
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// --- Kind ---

// String returns the kind's label as used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindRepository:
		return "repository"
	case KindAttribute:
		return "attribute"
	case KindNoMatch:
		return "no-match"
	case KindExternalCommand:
		return "external-command"
	case KindUserAborted:
		return "user-aborted"
	default:
		return "unknown"
	}
}

// Sentinel returns the sentinel error for the kind, or nil for KindUnknown.
func (k Kind) Sentinel() error {
	switch k {
	case KindConfig:
		return ErrConfig
	case KindRepository:
		return ErrRepository
	case KindAttribute:
		return ErrAttribute
	case KindNoMatch:
		return ErrNoMatch
	case KindExternalCommand:
		return ErrExternalCommand
	case KindUserAborted:
		return ErrUserAborted
	default:
		return nil
	}
}

// --- Constructors ---

// NewActionableError creates an ActionableError with the given operation.
// Use this for simple errors; use ErrorContext for more complex cases.
func NewActionableError(operation string) *ActionableError {
	return &ActionableError{
		Operation: operation,
	}
}

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// WrapWithOperation wraps an error with operation context.
func WrapWithOperation(err error, operation string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation: operation,
		Cause:     err,
	}
}

// WrapWithContext wraps an error with operation and resource context.
func WrapWithContext(err error, operation, resource string) *ActionableError {
	if err == nil {
		return nil
	}
	return &ActionableError{
		Operation: operation,
		Resource:  resource,
		Cause:     err,
	}
}

// Aborted returns the error reported when the user declines a prompt.
func Aborted() error {
	return &ActionableError{Kind: KindUserAborted, Operation: "continue", Cause: ErrUserAborted}
}

// KindOf returns the kind of the first ActionableError in err's chain.
func KindOf(err error) Kind {
	var ae *ActionableError
	for errors.As(err, &ae) {
		if ae.Kind != KindUnknown {
			return ae.Kind
		}
		err = ae.Cause
		ae = nil
	}
	return KindUnknown
}

// --- ActionableError Methods ---

// Error implements the error interface.
// Returns a concise error message suitable for default (non-verbose) output.
func (e *ActionableError) Error() string {
	if e.Kind == KindUserAborted {
		return ErrUserAborted.Error()
	}

	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for e's kind.
func (e *ActionableError) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && errors.Is(s, target)
}

// Format returns a formatted error message with optional verbosity.
//
// When verbose is false:
//
//	failed to <operation>: <resource>: <cause message>
//	  • <suggestion 1>
//	  • <suggestion 2>
//
// When verbose is true, additionally includes the full error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n")
		for _, suggestion := range e.Suggestions {
			msg.WriteString("\n  • ")
			msg.WriteString(suggestion)
		}
	}

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		err := e.Cause
		depth := 1
		for err != nil {
			fmt.Fprintf(&msg, "\n  %d. %s", depth, err.Error())
			err = errors.Unwrap(err)
			depth++
		}
	}

	return msg.String()
}

// HasSuggestions returns true if the error has any suggestions.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.Suggestions) > 0
}

// --- ErrorContext Methods ---

// WithKind sets the taxonomy kind.
func (c *ErrorContext) WithKind(kind Kind) *ErrorContext {
	c.kind = kind
	return c
}

// WithOperation sets the operation being performed.
// The operation should be a verb phrase like "open repository" or "write sparse-checkout file".
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the resource (file, path, entity) involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a suggestion for how to fix the issue.
// Can be called multiple times to add multiple suggestions.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// WithSuggestions adds multiple suggestions at once.
func (c *ErrorContext) WithSuggestions(sugs ...string) *ErrorContext {
	c.suggestions = append(c.suggestions, sugs...)
	return c
}

// Wrap wraps an underlying error as the cause.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// Build creates an ActionableError from the context.
// Returns nil if no operation is set (operation is required).
func (c *ErrorContext) Build() *ActionableError {
	if c.operation == "" {
		return nil
	}

	return &ActionableError{
		Kind:        c.kind,
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: c.suggestions,
		Cause:       c.cause,
	}
}

// BuildError creates an ActionableError and returns it as an error interface.
// This is a convenience method for direct use in return statements.
// Returns nil if no operation is set.
func (c *ErrorContext) BuildError() error {
	ae := c.Build()
	if ae == nil {
		return nil
	}
	return ae
}
