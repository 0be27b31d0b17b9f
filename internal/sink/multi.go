package sink

import "context"

// Multi composes a real-time notifier with a persistence sink. Deliver
// runs the broadcast inline and hands storage to the spawn hook so
// displays never wait on the database while the storage work stays
// owned by the caller's task group.
type Multi struct {
	notifier Sink
	store    Sink
	spawn    func(func())
}

// NewMulti builds the fan-out sink. spawn runs the storage side of a
// Deliver; pass the owning session's task-group submit function so
// teardown can await in-flight writes. A nil spawn stores inline.
func NewMulti(notifier, store Sink, spawn func(func())) *Multi {
	return &Multi{notifier: notifier, store: store, spawn: spawn}
}

func (m *Multi) Notify(ctx context.Context, event *Event) bool {
	if m.notifier == nil {
		return false
	}
	return m.notifier.Notify(ctx, event)
}

func (m *Multi) Store(ctx context.Context, event *Event) bool {
	if m.store == nil {
		return false
	}
	return m.store.Store(ctx, event)
}

// Deliver pushes the event to displays and schedules storage without
// blocking the caller on the database write.
func (m *Multi) Deliver(ctx context.Context, event *Event) bool {
	ok := m.Notify(ctx, event)
	if m.store != nil {
		persist := func() { m.Store(ctx, event) }
		if m.spawn != nil {
			m.spawn(persist)
		} else {
			persist()
		}
	}
	return ok
}
