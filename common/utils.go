package common

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

type Vec2 = mgl64.Vec2

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// DebugAssertions makes Assert panic instead of reporting through the handler.
// Tests switch it on; release hosts leave it off and recover by skipping the bad element.
var DebugAssertions = false

// AssertHandler receives failed assertions when DebugAssertions is off.
var AssertHandler = func(msg string) {}

// Assert reports whether cond holds. A false cond panics in debug builds.
func Assert(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if DebugAssertions {
		panic(msg)
	}
	AssertHandler(msg)
	return false
}

func Prev[T IT](i, n T) T {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

func Next[T IT](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// V2 builds a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}
