// Package errors provides examples of structured error handling in Strata.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/strata/pkg/errors"
)

// Example demonstrates basic error creation with details.
func Example() {
	err := errors.New(errors.ErrorTypeValidation, "value sequence is empty").
		WithDetail("codec", "int64")

	fmt.Println(err.Error())

	// Output:
	// validation: value sequence is empty
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	originalErr := io.ErrUnexpectedEOF

	err := errors.Wrap(originalErr, errors.ErrorTypeCorrupt, "failed to read delta section").
		WithDetail("column", 3)

	if errors.IsType(err, errors.ErrorTypeCorrupt) {
		fmt.Println("This is a corrupt payload")
	}
	fmt.Println(err)

	// Output:
	// This is a corrupt payload
	// corrupt: failed to read delta section: unexpected EOF
}

// ExampleIsFatal shows how callers separate their own mistakes from
// misconfiguration and internal bugs.
func ExampleIsFatal() {
	errs := []error{
		errors.New(errors.ErrorTypeValidation, "unsupported operator"),
		errors.New(errors.ErrorTypeCapacity, "record exceeds block size"),
		errors.New(errors.ErrorTypeInvariant, "unresolved predicate"),
		fmt.Errorf("plain error"),
	}

	for _, err := range errs {
		fmt.Printf("%v caller=%t fatal=%t\n", err, errors.IsCallerError(err), errors.IsFatal(err))
	}

	// Output:
	// validation: unsupported operator caller=true fatal=false
	// capacity: record exceeds block size caller=false fatal=true
	// invariant: unresolved predicate caller=false fatal=true
	// plain error caller=false fatal=false
}

// ExampleNewf demonstrates formatted messages.
func ExampleNewf() {
	err := errors.Newf(errors.ErrorTypeValidation, "sequence of %d items exceeds %d", 70000, 65535)
	fmt.Println(err)

	// Output:
	// validation: sequence of 70000 items exceeds 65535
}
