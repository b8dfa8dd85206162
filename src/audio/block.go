package audio

import (
	"math"
)

// Block is a fixed-length sample buffer. All blocks of a System share the same length.
type Block []float64

func newBlock(size int) Block {
	return make(Block, size)
}

func (b Block) fill(value float64) {
	for i := range b {
		b[i] = value
	}
}

func (b Block) zero() {
	b.fill(0)
}

func (b Block) accumulate(src Block) {
	for i := range b {
		b[i] += src[i]
	}
}

func (b Block) multiply(src Block) {
	for i := range b {
		b[i] *= src[i]
	}
}

func (b Block) scale(value float64) {
	for i := range b {
		b[i] *= value
	}
}

func (b Block) mulAdd(mul, add float64) {
	if mul == 1 && add == 0 {
		return
	}
	for i := range b {
		b[i] = b[i]*mul + add
	}
}

func clip(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	if value < -1 {
		return -1
	}
	if value > 1 {
		return 1
	}
	return value
}
