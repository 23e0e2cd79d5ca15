package http

import (
	"context"
)

// NotificationKind identifies why the user is being notified.
type NotificationKind string

const (
	NotifyForbidden   NotificationKind = "forbidden"
	NotifyRateLimited NotificationKind = "rate_limited"
	NotifyServer      NotificationKind = "server"
	NotifyNetwork     NotificationKind = "network"
)

// Notification is a user facing message about a failed request.
type Notification struct {
	Kind    NotificationKind
	Title   string
	Message string
	Err     error
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Navigator exposes the user's current location and moves them elsewhere.
type Navigator interface {
	CurrentPath() string
	Redirect(path string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) {}

type nopNavigator struct{}

func (nopNavigator) CurrentPath() string { return "" }
func (nopNavigator) Redirect(string)     {}

var notifications = map[NotificationKind]Notification{
	NotifyForbidden: {
		Kind:    NotifyForbidden,
		Title:   "Access denied",
		Message: "You do not have permission to perform this action.",
	},
	NotifyRateLimited: {
		Kind:    NotifyRateLimited,
		Title:   "Too many requests",
		Message: "Please wait a moment before trying again.",
	},
	NotifyServer: {
		Kind:    NotifyServer,
		Title:   "Server error",
		Message: "Something went wrong on our side. Please try again later.",
	},
	NotifyNetwork: {
		Kind:    NotifyNetwork,
		Title:   "Network error",
		Message: "Could not reach the server. Check your connection.",
	},
}

// notificationFor returns the notification for a status, false when the
// status is not user facing. Status 0 means no response.
func notificationFor(status int) (Notification, bool) {
	switch {
	case status == 0:
		return notifications[NotifyNetwork], true
	case status == 403:
		return notifications[NotifyForbidden], true
	case status == 429:
		return notifications[NotifyRateLimited], true
	case status >= 500:
		return notifications[NotifyServer], true
	default:
		return Notification{}, false
	}
}
