// Package notify provides delivery channel implementations for OTP
// messages. [SMTPSender] satisfies the engine's Notifier interface over
// SMTP via go-mail.
//
// # What this package must NOT do
//
//   - Generate or inspect OTP codes — it delivers opaque message bodies.
//   - Import any other authcore package.
package notify
