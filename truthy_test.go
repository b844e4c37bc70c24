// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"math"
	"testing"
)

type flag bool

func TestTruthy(t *testing.T) {
	t.Parallel()

	var nilPtr *point
	var nilFunc func()
	var nilMap map[string]int
	ch := make(chan int, 1)
	ch <- 1

	testCases := []struct {
		name  string
		value any
		want  bool
	}{
		{name: "Nil", value: nil, want: false},
		{name: "True", value: true, want: true},
		{name: "False", value: false, want: false},
		{name: "NamedBool", value: flag(true), want: true},
		{name: "Zero", value: 0, want: false},
		{name: "NonZero", value: -3, want: true},
		{name: "ZeroUint", value: uint8(0), want: false},
		{name: "ZeroFloat", value: 0.0, want: false},
		{name: "NegativeZeroFloat", value: math.Copysign(0, -1), want: false},
		{name: "NaN", value: math.NaN(), want: true},
		{name: "Float", value: 0.5, want: true},
		{name: "ZeroComplex", value: complex(0, 0), want: false},
		{name: "EmptyString", value: "", want: false},
		{name: "ZeroString", value: "0", want: true},
		{name: "EmptySlice", value: []any{}, want: false},
		{name: "NilSlice", value: []int(nil), want: false},
		{name: "Slice", value: []int{0}, want: true},
		{name: "EmptyArray", value: [0]int{}, want: false},
		{name: "EmptyMap", value: map[string]any{}, want: false},
		{name: "NilMap", value: nilMap, want: false},
		{name: "Map", value: map[int]int{0: 0}, want: true},
		{name: "EmptyTuple", value: Tuple{}, want: false},
		{name: "BufferedChannel", value: ch, want: true},
		{name: "NilPointer", value: nilPtr, want: false},
		{name: "Pointer", value: &point{}, want: true},
		{name: "NilFunc", value: nilFunc, want: false},
		{name: "Func", value: addOne, want: true},
		{name: "Struct", value: point{}, want: true},
		{name: "EmptyTruther", value: set{}, want: false},
		{name: "Truther", value: set{0: {}}, want: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Truthy(tc.value); got != tc.want {
				t.Errorf("Truthy(%#v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
