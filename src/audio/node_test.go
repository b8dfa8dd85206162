package audio

import (
	"testing"
)

type countingNode struct {
	Object
	calls int
}

func newCountingNode(sys *System, value float64) *countingNode {
	n := &countingNode{}
	n.init(sys, n, "counter", true)
	n.cells[1].fill(value)
	n.cells[2].fill(value)
	return n
}

func (n *countingNode) process(tickID int64) {
	n.calls++
}

func TestRenderOncePerTick(t *testing.T) {
	sys := NewSystem(Options{})
	shared := newCountingNode(sys, 0.1)
	a := NewSum(sys, shared)
	b := NewSum(sys, shared)
	a.Play()
	b.Play()
	l, _ := sys.Process()
	expectEqual(t, shared.calls, sys.StreamSize()/sys.BlockSize())
	// b joins at the end of the first tick
	expectNearlyEqual(t, l[0], 0.1*0.8)
	expectNearlyEqual(t, l[len(l)-1], 0.2*0.8)
}

func TestSumMix(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewSum(sys, NewValue(sys, 0.3), NewValue(sys, 0.4))
	n.Render(1)
	expectNearlyEqual(t, n.L()[0], 0.7)
	expectNearlyEqual(t, n.R()[sys.BlockSize()-1], 0.7)
	expectNearlyEqual(t, n.Value(), 0.7)

	expectEqual(t, n.ToControlRate(), true)
	expectEqual(t, n.Rate(), ControlRate)
	n.Render(2)
	expectNearlyEqual(t, n.Value(), 0.7)
	expectNearlyEqual(t, n.L()[sys.BlockSize()-1], 0.7)
}

func TestMulAdd(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewSum(sys, NewValue(sys, 0.5))
	n.SetMul(2)
	n.SetAdd(0.25)
	n.Render(1)
	expectNearlyEqual(t, n.L()[0], 1.25)

	v := NewValue(sys, 0.5)
	v.SetMul(3)
	expectNearlyEqual(t, v.Value(), 1.5)
	expectNearlyEqual(t, v.Get(), 0.5)
}

func TestFixedRate(t *testing.T) {
	sys := NewSystem(Options{})
	v := NewValue(sys, 1)
	expectEqual(t, v.ToAudioRate(), false)
	expectEqual(t, v.IsAR(), false)
	expectEqual(t, v.ToControlRate(), true)

	s := NewSum(sys)
	rates := 0
	s.On(EventRate, func(args ...interface{}) {
		rates++
	})
	expectEqual(t, s.SetRate(ControlRate), true)
	expectEqual(t, s.SetRate(ControlRate), true)
	expectEqual(t, rates, 1)
}

func TestInvalidChildren(t *testing.T) {
	sys := NewSystem(Options{})
	var missing *Sum
	n := NewSum(sys, nil, missing, NewValue(sys, 1))
	expectEqual(t, len(n.Nodes()), 1)
}

func TestAppendRemove(t *testing.T) {
	sys := NewSystem(Options{})
	a := NewValue(sys, 1)
	b := NewValue(sys, 2)
	n := NewSum(sys)
	appended := 0
	n.On(EventAppend, func(args ...interface{}) {
		appended += len(args[0].([]Node))
	})
	n.Append(a, b, a)
	expectEqual(t, appended, 3)
	expectEqual(t, len(n.Nodes()), 3)
	n.Remove(a)
	nodes := n.Nodes()
	expectEqual(t, len(nodes), 2)
	expectEqual(t, nodes[0], Node(b))
	n.RemoveAll()
	expectEqual(t, len(n.Nodes()), 0)
}

func TestEndedChildIsSkipped(t *testing.T) {
	sys := NewSystem(Options{})
	vm := NewVoiceManager(sys, 1, nil)
	n := NewSum(sys, vm, NewValue(sys, 1))
	n.Render(1)
	expectNearlyEqual(t, n.L()[0], 1)
	expectEqual(t, vm.State(), Ended)
}

func TestBuddies(t *testing.T) {
	sys := NewSystem(Options{})
	a := NewSum(sys)
	b := NewSum(sys)
	a.AddBuddies(b, a)
	a.Play()
	expectEqual(t, sys.IsActive(a), true)
	expectEqual(t, sys.IsActive(b), false)
	sys.Process()
	expectEqual(t, sys.IsActive(b), true)
	a.Pause()
	sys.Process()
	expectEqual(t, sys.IsActive(b), false)
	expectEqual(t, sys.Status(), StatusStopped)
}

func TestFuncNode(t *testing.T) {
	sys := NewSystem(Options{})
	var got []interface{}
	f := NewFunc(sys, func(args ...interface{}) {
		got = args
	})
	f.Bang(1, "a")
	expectEqual(t, len(got), 2)
	expectEqual(t, got[1], "a")
	f.SetValue(0.5)
	expectNearlyEqual(t, f.Value(), 0.5)
}

func TestObservers(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewSum(sys)
	count := 0
	off := n.On(EventBang, func(args ...interface{}) {
		count++
	})
	n.Once(EventBang, func(args ...interface{}) {
		count += 10
	})
	n.Bang()
	n.Bang()
	expectEqual(t, count, 12)
	off()
	n.Bang()
	expectEqual(t, count, 12)
	expectEqual(t, n.ListenerCount(EventBang), 0)
}
