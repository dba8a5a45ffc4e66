// Package internal contains helper utilities that are intentionally private
// to authcore: secure OTP code and salt generation and the salted code digest
// shared by issuance and verification.
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
