package audio

import (
	"math"
)

// Sum adds its playing children together.
type Sum struct {
	Object
}

// NewSum creates a summing node at audio rate.
func NewSum(sys *System, nodes ...Node) *Sum {
	n := &Sum{}
	n.init(sys, n, "+", true)
	n.Append(nodes...)
	return n
}

func (n *Sum) process(tickID int64) {
	n.renderInputs(tickID)
	n.renderOutputs()
}

// Value is a control-rate constant.
type Value struct {
	Object
	value float64
}

// NewValue creates a constant node. NaN is stored as 0.
func NewValue(sys *System, value float64) *Value {
	n := &Value{}
	n.init(sys, n, "number", false)
	n.fixedRate = true
	n.hook(EventSetMul, n.refresh)
	n.hook(EventSetAdd, n.refresh)
	n.SetValue(value)
	return n
}

// SetValue replaces the constant.
func (n *Value) SetValue(value float64) {
	if math.IsNaN(value) {
		value = 0
	}
	n.value = value
	n.refresh()
}

// Get returns the constant before mul/add.
func (n *Value) Get() float64 {
	return n.value
}

// Bang re-emits the current value.
func (n *Value) Bang(args ...interface{}) {
	n.emit(EventBang, n.value)
}

func (n *Value) refresh(args ...interface{}) {
	n.outputControl(n.value)
}

func (n *Value) process(tickID int64) {}

// FuncNode runs an action when banged. Its value is a settable constant.
type FuncNode struct {
	Object
	action func(args ...interface{})
	value  float64
}

// NewFunc creates a node that calls action on every bang.
func NewFunc(sys *System, action func(args ...interface{})) *FuncNode {
	n := &FuncNode{action: action}
	n.init(sys, n, "func", false)
	n.fixedRate = true
	n.hook(EventSetMul, n.refresh)
	n.hook(EventSetAdd, n.refresh)
	n.refresh()
	return n
}

// SetValue sets the value the node outputs.
func (n *FuncNode) SetValue(value float64) {
	if math.IsNaN(value) {
		value = 0
	}
	n.value = value
	n.refresh()
}

// Bang calls the action with args.
func (n *FuncNode) Bang(args ...interface{}) {
	if n.action != nil {
		n.action(args...)
	}
	n.emit(EventBang, args...)
}

func (n *FuncNode) refresh(args ...interface{}) {
	n.outputControl(n.value)
}

func (n *FuncNode) process(tickID int64) {}
