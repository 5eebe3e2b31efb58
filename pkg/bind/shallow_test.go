package bind

import "testing"

type point struct {
	X, Y int
	tags []string
}

func TestShallowPrimitives(t *testing.T) {
	if !Shallow(1, 1) {
		t.Error("equal ints should be shallow-equal")
	}
	if Shallow(1, 2) {
		t.Error("different ints should not be shallow-equal")
	}
	if !Shallow("a", "a") {
		t.Error("equal strings should be shallow-equal")
	}
}

func TestShallowMaps(t *testing.T) {
	a := map[string]int{"a": 1, "b": 2}
	b := map[string]int{"b": 2, "a": 1}
	if !Shallow(a, b) {
		t.Error("maps with same entries should be shallow-equal")
	}
	if Shallow(a, map[string]int{"a": 1, "b": 3}) {
		t.Error("different values should not be shallow-equal")
	}
	if Shallow(a, map[string]int{"a": 1, "c": 2}) {
		t.Error("different keys should not be shallow-equal")
	}
	if Shallow(a, map[string]int{"a": 1}) {
		t.Error("different sizes should not be shallow-equal")
	}
	if Shallow(a, nil) {
		t.Error("nil map should not be shallow-equal to non-nil")
	}
	var n1, n2 map[string]int
	if !Shallow(n1, n2) {
		t.Error("two nil maps are identical")
	}
}

func TestShallowNestedByIdentity(t *testing.T) {
	inner := []int{1}
	a := map[string]any{"list": inner}
	b := map[string]any{"list": inner}
	if !Shallow(a, b) {
		t.Error("same nested reference should be shallow-equal")
	}
	c := map[string]any{"list": []int{1}}
	if Shallow(a, c) {
		t.Error("nested values compare by identity, not deeply")
	}
}

func TestShallowStructs(t *testing.T) {
	tags := []string{"x"}
	if !Shallow(point{1, 2, tags}, point{1, 2, tags}) {
		t.Error("structs with identical fields should be shallow-equal")
	}
	if Shallow(point{1, 2, tags}, point{1, 2, []string{"x"}}) {
		t.Error("structs with distinct slices should not be shallow-equal")
	}
	if !Shallow(&point{1, 2, tags}, &point{1, 2, tags}) {
		t.Error("pointers to identical structs should be shallow-equal")
	}
	if Shallow(&point{1, 2, nil}, nil) {
		t.Error("nil pointer should not be shallow-equal")
	}
}

func TestShallowSlices(t *testing.T) {
	if !Shallow([]int{1, 2}, []int{1, 2}) {
		t.Error("slices with identical elements should be shallow-equal")
	}
	if Shallow([]int{1, 2}, []int{1, 2, 3}) {
		t.Error("different lengths should not be shallow-equal")
	}
	if Shallow([]int{1, 2}, nil) {
		t.Error("nil slice should not be shallow-equal to non-nil")
	}
}

func TestShallowInterfaces(t *testing.T) {
	var a, b any = map[string]int{"k": 1}, map[string]int{"k": 1}
	if !Shallow(a, b) {
		t.Error("interfaces holding shallow-equal maps should be shallow-equal")
	}
	var c any = 1
	if Shallow(a, c) {
		t.Error("different dynamic types should not be shallow-equal")
	}
	if Shallow[any](nil, a) {
		t.Error("nil interface should not be shallow-equal to non-nil")
	}
}
