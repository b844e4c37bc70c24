// SPDX-License-Identifier: Apache-2.0

package compose

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestItem(t *testing.T) {
	t.Parallel()

	nested := map[string]any{
		"a":    map[string]any{"b": map[string]any{"c": 99}},
		"list": []any{"x", "y", "z"},
		"a.b":  "literal",
	}

	testCases := []struct {
		name      string
		keys      []any
		input     any
		want      any
		validator func(error) error
	}{
		{
			name:      "SliceIndex",
			keys:      []any{1},
			input:     []any{10, 20, 30},
			want:      20,
			validator: isNil,
		},
		{
			name:      "NegativeIndex",
			keys:      []any{-1},
			input:     []any{10, 20, 30},
			want:      30,
			validator: isNil,
		},
		{
			name:      "TypedSlice",
			keys:      []any{int64(0)},
			input:     []string{"first", "second"},
			want:      "first",
			validator: isNil,
		},
		{
			name:      "Array",
			keys:      []any{2},
			input:     [3]int{4, 5, 6},
			want:      6,
			validator: isNil,
		},
		{
			name:      "StringIndex",
			keys:      []any{1},
			input:     "héllo",
			want:      "é",
			validator: isNil,
		},
		{
			name:      "MapKey",
			keys:      []any{"list"},
			input:     nested,
			want:      []any{"x", "y", "z"},
			validator: isNil,
		},
		{
			name:      "AnyKeyedMap",
			keys:      []any{3},
			input:     map[any]any{3: "three", "3": "string three"},
			want:      "three",
			validator: isNil,
		},
		{
			name:      "TypedMap",
			keys:      []any{"b"},
			input:     map[string]int{"a": 1, "b": 2},
			want:      2,
			validator: isNil,
		},
		{
			name:      "MultipleKeys",
			keys:      []any{0, 2},
			input:     []any{"a", "b", "c"},
			want:      Tuple{"a", "c"},
			validator: isNil,
		},
		{
			name:      "DotPath",
			keys:      []any{"a.b.c"},
			input:     nested,
			want:      99,
			validator: isNil,
		},
		{
			name:      "DottedKeyAmongSeveral",
			keys:      []any{"a.b", "list"},
			input:     nested,
			want:      Tuple{"literal", []any{"x", "y", "z"}},
			validator: isNil,
		},
		{
			name:      "ItemGetter",
			keys:      []any{"k"},
			input:     customGetter{"k": "v"},
			want:      "v",
			validator: isNil,
		},
		{
			name:      "IndexOutOfRange",
			keys:      []any{3},
			input:     []any{1, 2, 3},
			validator: matches(ErrIndexOutOfRange),
		},
		{
			name:      "NegativeIndexOutOfRange",
			keys:      []any{-4},
			input:     []any{1, 2, 3},
			validator: matches(ErrIndexOutOfRange),
		},
		{
			name:      "MissingKey",
			keys:      []any{"nope"},
			input:     nested,
			validator: all(matches(ErrKeyNotFound), contains(`"nope"`)),
		},
		{
			name:      "MissingDeepKey",
			keys:      []any{"a.x.c"},
			input:     nested,
			validator: all(isFailure("item(x)", map[string]any{"b": map[string]any{"c": 99}}), matches(ErrKeyNotFound)),
		},
		{
			name:      "NonIntegerSequenceIndex",
			keys:      []any{"0"},
			input:     []any{1},
			validator: matches(ErrNotSubscriptable),
		},
		{
			name:      "NotSubscriptable",
			keys:      []any{0},
			input:     42,
			validator: matches(ErrNotSubscriptable),
		},
		{
			name:      "Nil",
			keys:      []any{0},
			input:     nil,
			validator: matches(ErrNotSubscriptable),
		},
		{
			name:      "UnhashableKey",
			keys:      []any{[]any{1}},
			input:     map[any]any{1: 1},
			validator: matches(ErrKeyNotFound),
		},
		{
			name:      "UnhashableKeyTypedMap",
			keys:      []any{[]int{1}},
			input:     map[any]int{1: 1},
			validator: all(matches(ErrKeyNotFound), contains("unhashable key type []int")),
		},
		{
			name:      "UnhashableFieldInKey",
			keys:      []any{[1]any{[]int{1}}},
			input:     map[any]any{1: 1},
			validator: matches(ErrKeyNotFound),
		},
		{
			name:      "MaxUint64Index",
			keys:      []any{uint64(math.MaxUint64)},
			input:     []any{"a", "b"},
			validator: matches(ErrIndexOutOfRange),
		},
		{
			name:      "MaxUintIndexTypedSlice",
			keys:      []any{uint(math.MaxUint)},
			input:     []string{"a", "b"},
			validator: matches(ErrIndexOutOfRange),
		},
		{
			name:      "MinInt64Index",
			keys:      []any{int64(math.MinInt64)},
			input:     []any{"a", "b"},
			validator: matches(ErrIndexOutOfRange),
		},
		{
			name:      "Uint64Index",
			keys:      []any{uint64(1)},
			input:     []any{"a", "b"},
			want:      "b",
			validator: isNil,
		},
		{
			name:      "ItemGetterError",
			keys:      []any{"missing"},
			input:     customGetter{},
			validator: matches(ErrKeyNotFound),
		},
		{
			name:      "OneMissingKeyFailsAll",
			keys:      []any{0, 5},
			input:     []any{"a"},
			validator: matches(ErrIndexOutOfRange),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			acc, err := Item(tc.keys...)
			require.NoError(t, err)
			got, err := acc.Call(tc.input)
			if err := tc.validator(err); err != nil {
				t.Error(err)
			}
			if err == nil {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestItemDotPathBuildsPipeline(t *testing.T) {
	t.Parallel()

	acc, err := Item("a.b.c")
	require.NoError(t, err)
	require.Nil(t, acc.Single)
	require.NotNil(t, acc.Composed)
	require.Equal(t, 3, acc.Composed.Len())
	require.Equal(t, "<Pipeline: item(c),item(b),item(a)>", acc.Composed.String())
	require.Same(t, acc.Composed, acc.Composer())

	single, err := Item("plain")
	require.NoError(t, err)
	require.Nil(t, single.Composed)
	require.Equal(t, "item(plain)", single.Composer().Name())
}

func TestItemComposes(t *testing.T) {
	t.Parallel()

	p, err := toInt.After(MustItem("scores.first"))
	require.NoError(t, err)
	require.Equal(t, 3, p.Len())

	got, err := p.Call(map[string]any{"scores": map[string]any{"first": "12"}})
	require.NoError(t, err)
	require.Equal(t, 12, got)
}

func TestItemArity(t *testing.T) {
	t.Parallel()

	_, err := Item()
	require.ErrorIs(t, err, ErrArity)
	require.EqualError(t, err, "item expected at least 1 argument, got 0")

	_, err = Attr()
	require.ErrorIs(t, err, ErrArity)
	require.EqualError(t, err, "attr expected at least 1 argument, got 0")

	require.Panics(t, func() { MustItem() })
	require.Panics(t, func() { MustAttr() })
}

func TestAttr(t *testing.T) {
	t.Parallel()

	p := point{X: 1, Y: -2}
	testCases := []struct {
		name      string
		names     []string
		input     any
		want      any
		validator func(error) error
	}{
		{
			name:      "Field",
			names:     []string{"X"},
			input:     p,
			want:      1,
			validator: isNil,
		},
		{
			name:      "FieldThroughPointer",
			names:     []string{"Y"},
			input:     &p,
			want:      -2,
			validator: isNil,
		},
		{
			name:      "MultipleNames",
			names:     []string{"X", "Y"},
			input:     p,
			want:      Tuple{1, -2},
			validator: isNil,
		},
		{
			name:      "NiladicMethodIsCalled",
			names:     []string{"Norm1"},
			input:     p,
			want:      3,
			validator: isNil,
		},
		{
			name:      "DottedName",
			names:     []string{"Point.X"},
			input:     record{Point: &point{X: 7}},
			want:      7,
			validator: isNil,
		},
		{
			name:      "MixedDottedAndPlain",
			names:     []string{"Point.Norm1", "Point"},
			input:     record{Point: &point{X: 3, Y: 4}},
			want:      Tuple{7, &point{X: 3, Y: 4}},
			validator: isNil,
		},
		{
			name:      "AttrGetter",
			names:     []string{"color"},
			input:     customGetter{"color": "red"},
			want:      "red",
			validator: isNil,
		},
		{
			name:      "UnexportedField",
			names:     []string{"name"},
			input:     p,
			validator: matches(ErrAttrNotFound),
		},
		{
			name:      "MissingField",
			names:     []string{"Z"},
			input:     p,
			validator: all(matches(ErrAttrNotFound), contains(`"Z"`)),
		},
		{
			name:      "NilPointerOnPath",
			names:     []string{"Point.X"},
			input:     record{},
			validator: matches(ErrAttrNotFound),
		},
		{
			name:      "Nil",
			names:     []string{"X"},
			input:     nil,
			validator: matches(ErrAttrNotFound),
		},
		{
			name:      "AttrGetterError",
			names:     []string{"size"},
			input:     customGetter{},
			validator: matches(ErrKeyNotFound),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			a, err := Attr(tc.names...)
			require.NoError(t, err)
			got, err := a.Call(tc.input)
			if err := tc.validator(err); err != nil {
				t.Error(err)
			}
			if err == nil {
				require.Equal(t, tc.want, got)
			}
		})
	}
}

func TestAttrMethodWithArguments(t *testing.T) {
	t.Parallel()

	p := &point{X: 1, Y: 2}
	got, err := MustAttr("Scale").Call(p)
	require.NoError(t, err)

	scale, ok := got.(func(int))
	require.True(t, ok, "expected a method value, got %T", got)
	scale(3)
	require.Equal(t, point{X: 3, Y: 6}, *p)
}
