// Package observer attaches MutationObservers to caption containers inside
// a live page and reports every mutation batch back to Go.
//
// The Host interface is what the pipeline drives; RodHost implements it
// over the DevTools protocol. Each mutation notification carries the
// container's outerHTML as captured inside the MutationObserver callback,
// so extraction always sees the container as it was when the batch fired.
package observer

import (
	"context"

	"github.com/hazyhaar/captionbridge/captionwatch/caption"
)

// Notification is one "container changed" signal from the page.
type Notification struct {
	// Token identifies the subscription that fired.
	Token string
	// HTML is the container's outerHTML at callback time.
	HTML []byte
}

// Container is a located caption container.
type Container interface {
	// Key is stable for the lifetime of the underlying element and
	// differs between two distinct elements, even with identical markup.
	Key() string
	// HTML returns the container's current outerHTML.
	HTML(ctx context.Context) ([]byte, error)
	// Release frees the page-side handle. Every container returned by
	// FindContainer must be released once the caller is done with it.
	Release(ctx context.Context) error
}

// Subscription is a live MutationObserver on one container.
type Subscription interface {
	Token() string
	// Disconnect stops the in-page observer. Notifications already queued
	// for this token may still be delivered; callers filter them by token.
	Disconnect(ctx context.Context) error
}

// Host is the page the bridge is attached to.
type Host interface {
	// FindContainer returns the first element matching sel, or nil with a
	// nil error when nothing matches.
	FindContainer(ctx context.Context, sel caption.Selector) (Container, error)
	// Observe installs a subtree MutationObserver on c tagged with token.
	Observe(ctx context.Context, c Container, token string) (Subscription, error)
	// Notifications delivers mutation signals for every subscription.
	Notifications() <-chan Notification
}
