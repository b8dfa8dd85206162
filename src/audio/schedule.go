package audio

const defaultMaxRemain = 1000

type scheduleEntry struct {
	time   float64
	target Node
	args   []interface{}
}

// ScheduleNode fires bangs on target nodes at times measured on its own clock,
// which advances one tick duration per render. It is a timer: Start and Stop
// control its membership in the system's timer set.
type ScheduleNode struct {
	Object
	queue       []scheduleEntry
	currentTime float64
	maxRemain   int
}

// NewScheduleNode creates an empty scheduler. maxRemain <= 0 selects the default of 1000.
func NewScheduleNode(sys *System, maxRemain int) *ScheduleNode {
	if maxRemain <= 0 {
		maxRemain = defaultMaxRemain
	}
	n := &ScheduleNode{
		maxRemain: maxRemain,
	}
	n.init(sys, n, "schedule", false)
	n.fixedRate = true
	n.role = roleTimer
	return n
}

// Start joins the timer set at the next tick boundary.
func (n *ScheduleNode) Start() {
	n.Play()
}

// Stop leaves the timer set at the next tick boundary.
func (n *ScheduleNode) Stop() {
	n.Pause()
}

// CurrentTime returns the scheduler clock in milliseconds.
func (n *ScheduleNode) CurrentTime() float64 {
	return n.currentTime
}

// Len returns the number of pending entries.
func (n *ScheduleNode) Len() int {
	return len(n.queue)
}

// MaxRemain returns the queue bound.
func (n *ScheduleNode) MaxRemain() int {
	return n.maxRemain
}

// Sched fires target delta milliseconds after the current scheduler time.
func (n *ScheduleNode) Sched(delta float64, target Node, args ...interface{}) {
	n.SchedAbs(n.currentTime+delta, target, args...)
}

// SchedDuration is Sched with a duration string.
func (n *ScheduleNode) SchedDuration(delta string, target Node, args ...interface{}) {
	n.Sched(n.sys.Resolve(delta), target, args...)
}

// SchedAbs fires target at time milliseconds on the scheduler clock.
// When the queue is full the entry is dropped.
func (n *ScheduleNode) SchedAbs(time float64, target Node, args ...interface{}) {
	if !isValidNode(target) {
		return
	}
	if len(n.queue) >= n.maxRemain {
		return
	}
	i := len(n.queue) - 1
	for ; i >= 0; i-- {
		if n.queue[i].time < time {
			break
		}
	}
	entry := scheduleEntry{time: time, target: target, args: args}
	n.queue = append(n.queue, scheduleEntry{})
	copy(n.queue[i+2:], n.queue[i+1:])
	n.queue[i+1] = entry
}

// SchedAbsDuration is SchedAbs with a duration string.
func (n *ScheduleNode) SchedAbsDuration(time string, target Node, args ...interface{}) {
	n.SchedAbs(n.sys.Resolve(time), target, args...)
}

// SchedFunc fires f after delta milliseconds.
func (n *ScheduleNode) SchedFunc(delta float64, f func(args ...interface{}), args ...interface{}) {
	n.Sched(delta, NewFunc(n.sys, f), args...)
}

// Advance moves the scheduler clock by delta milliseconds.
func (n *ScheduleNode) Advance(delta float64) {
	n.currentTime += delta
}

// Clear drops every pending entry without firing it.
func (n *ScheduleNode) Clear() {
	n.queue = nil
}

func (n *ScheduleNode) process(tickID int64) {
	for len(n.queue) > 0 && n.queue[0].time < n.currentTime {
		entry := n.queue[0]
		n.queue[0] = scheduleEntry{}
		n.queue = n.queue[1:]
		entry.target.Bang(entry.args...)
		n.emit(EventScheduled, entry.time, entry.target, entry.args)
		if len(n.queue) == 0 {
			n.emit(EventEmpty)
		}
	}
	n.currentTime += n.sys.TickDuration()
}
