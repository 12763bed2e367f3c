package ports

import "context"

// EventKind enumerates the lifecycle events the bus can carry (§4.I).
type EventKind int

const (
	EventPluginAdd EventKind = iota
	EventPluginRemove
	EventPluginInstall
	EventPluginUninstall
	EventPluginUpdate
	EventPluginLock
	EventPluginUnlock
	// EventPluginOutdated is not cancellable and MUST be dispatched on the
	// host's main thread when the host requires it.
	EventPluginOutdated
)

func (k EventKind) String() string {
	switch k {
	case EventPluginAdd:
		return "PluginAdd"
	case EventPluginRemove:
		return "PluginRemove"
	case EventPluginInstall:
		return "PluginInstall"
	case EventPluginUninstall:
		return "PluginUninstall"
	case EventPluginUpdate:
		return "PluginUpdate"
	case EventPluginLock:
		return "PluginLock"
	case EventPluginUnlock:
		return "PluginUnlock"
	case EventPluginOutdated:
		return "PluginOutdated"
	default:
		return "Unknown"
	}
}

// cancellableKinds lists events whose cancelled flag the bus honors.
// PluginOutdated is informational only and is never cancellable.
var cancellableKinds = map[EventKind]bool{
	EventPluginAdd:       true,
	EventPluginRemove:    true,
	EventPluginInstall:   true,
	EventPluginUninstall: true,
	EventPluginUpdate:    true,
	EventPluginLock:      true,
	EventPluginUnlock:    true,
}

// Cancellable reports whether subscribers may cancel this kind of event.
func (k EventKind) Cancellable() bool { return cancellableKinds[k] }

// LifecycleEvent is broadcast synchronously to subscribers. Any subscriber
// may set Cancelled via Cancel(), for kinds where Kind.Cancellable() is
// true; subscribers of a non-cancellable kind calling Cancel() have no
// effect.
type LifecycleEvent struct {
	Kind    EventKind
	Plugin  string
	Payload any

	cancelled bool
}

// Cancel marks the event cancelled, if its kind permits cancellation.
func (e *LifecycleEvent) Cancel() {
	if e.Kind.Cancellable() {
		e.cancelled = true
	}
}

// Cancelled reports whether any subscriber cancelled this event.
func (e *LifecycleEvent) Cancelled() bool { return e.cancelled }

// EventBus broadcasts lifecycle events synchronously. Subscribers MUST
// return promptly; long work is their responsibility.
//
// This is a PORT - application defines what it needs, infrastructure
// provides how.
type EventBus interface {
	// Publish broadcasts event to every subscriber of its kind, in
	// subscription order, then returns. Callers check event.Cancelled()
	// afterward.
	Publish(ctx context.Context, event *LifecycleEvent)

	// Subscribe registers handler for kind and returns an unsubscribe func.
	Subscribe(kind EventKind, handler func(ctx context.Context, event *LifecycleEvent)) (unsubscribe func())
}

// HostThreadDispatcher marshals a callback onto a host's main thread. The
// default core implementation runs fn synchronously on the calling
// goroutine; a host-specific adapter wraps it to bounce onto the real
// main thread for kinds that require it (at minimum PluginOutdated).
type HostThreadDispatcher interface {
	DispatchOnHostThread(ctx context.Context, fn func())
}
