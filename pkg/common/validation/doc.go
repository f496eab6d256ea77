// Package validation provides common validation utilities for configuration
// parameters across prodsim.
//
// The helpers return *errors.ValidationError values so that every rejected
// setting reports its module, field and a hint in the same format.
package validation
