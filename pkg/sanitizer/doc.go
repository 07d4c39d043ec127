// Package sanitizer normalizes request input before validation.
//
// All functions are idempotent and handle invalid input by returning empty
// strings or empty slices rather than errors.
//
// Normalization includes:
//   - Strings: collapse whitespace, trim leading/trailing spaces
//   - Source ids: lowercase, keep only letters, digits, '-' and '_'
//   - Brands: trim only, case is significant when filtering
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
