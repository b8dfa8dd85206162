package audio

// Event names emitted by nodes and the system.
const (
	EventAppend    = "append"
	EventRemove    = "remove"
	EventRate      = "ar"
	EventPlay      = "play"
	EventPause     = "pause"
	EventBang      = "bang"
	EventEnded     = "ended"
	EventReleased  = "released"
	EventSustained = "sustained"
	EventScheduled = "scheduled"
	EventEmpty     = "empty"
	EventSetMul    = "setMul"
	EventSetAdd    = "setAdd"
)

// Listener receives event arguments.
type Listener func(args ...interface{})

type handler struct {
	id   int
	fn   Listener
	once bool
}

// emitter is a small ordered fan-out of named events.
type emitter struct {
	seq      int
	handlers map[string][]handler
}

func (e *emitter) on(name string, fn Listener, once bool) func() {
	if fn == nil {
		return func() {}
	}
	if e.handlers == nil {
		e.handlers = make(map[string][]handler)
	}
	e.seq++
	id := e.seq
	e.handlers[name] = append(e.handlers[name], handler{id: id, fn: fn, once: once})
	return func() {
		e.off(name, id)
	}
}

func (e *emitter) off(name string, id int) {
	list := e.handlers[name]
	for i, h := range list {
		if h.id == id {
			e.handlers[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (e *emitter) clear(name string) {
	if name == "" {
		e.handlers = nil
		return
	}
	delete(e.handlers, name)
}

func (e *emitter) emit(name string, args ...interface{}) {
	list := e.handlers[name]
	if len(list) == 0 {
		return
	}
	// handlers may register or remove handlers while running
	snapshot := make([]handler, len(list))
	copy(snapshot, list)
	for _, h := range snapshot {
		if h.once {
			e.off(name, h.id)
		}
		h.fn(args...)
	}
}

func (e *emitter) count(name string) int {
	return len(e.handlers[name])
}

// notifier keeps invariant-preserving hooks apart from user observers.
// Hooks always run first and cannot be removed through the public API.
type notifier struct {
	hooks     emitter
	observers emitter
}

func (n *notifier) hook(name string, fn Listener) {
	n.hooks.on(name, fn, false)
}

func (n *notifier) emit(name string, args ...interface{}) {
	n.hooks.emit(name, args...)
	n.observers.emit(name, args...)
}

// On registers an observer and returns a function that removes it.
func (n *notifier) On(name string, fn Listener) func() {
	return n.observers.on(name, fn, false)
}

// Once registers an observer that is removed after its first call.
func (n *notifier) Once(name string, fn Listener) func() {
	return n.observers.on(name, fn, true)
}

// RemoveAllListeners drops user observers for name, or all of them when name is empty.
func (n *notifier) RemoveAllListeners(name string) {
	n.observers.clear(name)
}

// ListenerCount reports the number of user observers for name.
func (n *notifier) ListenerCount(name string) int {
	return n.observers.count(name)
}
