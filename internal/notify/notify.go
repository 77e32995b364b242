// Package notify is the toast-style user notification channel. Each
// operation surfaces exactly one notification; failures are batched into a
// single message, never emitted per item.
package notify

import "log"

// Notifier delivers user-visible outcome messages.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// LogNotifier writes notifications to the process log. Used by the CLI.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { log.Printf("✅ %s", msg) }
func (LogNotifier) Warning(msg string) { log.Printf("⚠️ %s", msg) }
func (LogNotifier) Error(msg string)   { log.Printf("❌ %s", msg) }
