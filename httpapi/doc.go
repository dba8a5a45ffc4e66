// Package httpapi exposes the authentication engine over HTTP with chi.
//
// Response field names (otpId, maskedEmail, mfaRequired, medData, ...) and
// status codes form the client compatibility contract. Login success always
// carries token:null — this facade issues no session tokens.
//
// # What this package must NOT do
//
//   - Reach into Redis or the user database directly — everything goes
//     through the engine.
//   - Log or echo plaintext passwords or OTP codes.
package httpapi
