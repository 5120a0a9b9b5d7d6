// Package mailer ships the production [emailauth.EmailSender]: SendGrid
// delivery with HTML bodies rendered per notification kind.
//
// The sender is the error boundary the core relies on: transport failures
// are logged with {type, recipient, status, timestamp} fields and reported
// as false, never surfaced as errors or panics.
package mailer
