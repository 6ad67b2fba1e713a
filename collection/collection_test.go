package collection

import "testing"

func TestFilterDoesNotMutateSource(t *testing.T) {
	c := New([]int{1, 2, 3, 4})
	evens := c.Filter(func(n int) bool { return n%2 == 0 })

	if c.Len() != 4 {
		t.Fatalf("source mutated: len = %d, want 4", c.Len())
	}
	if evens.Len() != 2 {
		t.Fatalf("evens.Len() = %d, want 2", evens.Len())
	}
}

func TestRejectMutatesInPlace(t *testing.T) {
	c := New([]int{1, 2, 3, 4})
	c.Reject(func(n int) bool { return n%2 == 0 })

	if c.Len() != 2 {
		t.Fatalf("after Reject, len = %d, want 2", c.Len())
	}
	for _, n := range c.Items() {
		if n%2 == 0 {
			t.Fatalf("Reject left an even number: %d", n)
		}
	}
}

func TestPushPopShiftPrepend(t *testing.T) {
	c := Empty[string]()
	c.Push("b").Push("c").Prepend("a")
	if c.Items()[0] != "a" || c.Items()[2] != "c" {
		t.Fatalf("items = %v, want [a b c]", c.Items())
	}

	last, ok := c.Pop()
	if !ok || last != "c" {
		t.Fatalf("Pop() = %q, %v, want c, true", last, ok)
	}
	first, ok := c.Shift()
	if !ok || first != "a" {
		t.Fatalf("Shift() = %q, %v, want a, true", first, ok)
	}
	if c.Len() != 1 || c.Items()[0] != "b" {
		t.Fatalf("remaining items = %v, want [b]", c.Items())
	}
}

func TestChunk(t *testing.T) {
	c := New([]int{1, 2, 3, 4, 5})
	chunks := c.Chunk(2)
	if len(chunks) != 3 {
		t.Fatalf("Chunk(2) produced %d chunks, want 3", len(chunks))
	}
	if chunks[0].Len() != 2 || chunks[2].Len() != 1 {
		t.Fatalf("chunk sizes = %d,%d,%d, want 2,2,1", chunks[0].Len(), chunks[1].Len(), chunks[2].Len())
	}
}

func TestGroupByPreservesFirstSeenOrder(t *testing.T) {
	c := New([]string{"banana", "apple", "avocado", "blueberry"})
	order, groups := GroupBy(c, func(s string) byte { return s[0] })

	if len(order) != 2 || order[0] != 'b' || order[1] != 'a' {
		t.Fatalf("order = %v, want [b a]", order)
	}
	if groups['a'].Len() != 2 || groups['b'].Len() != 2 {
		t.Fatalf("group sizes wrong: a=%d b=%d", groups['a'].Len(), groups['b'].Len())
	}
}

func TestMapAndReduce(t *testing.T) {
	c := New([]int{1, 2, 3})
	doubled := Map(c, func(n int) int { return n * 2 })
	if doubled.Items()[2] != 6 {
		t.Fatalf("doubled = %v, want [2 4 6]", doubled.Items())
	}

	sum := Reduce(c, 0, func(acc, n int) int { return acc + n })
	if sum != 6 {
		t.Fatalf("sum = %d, want 6", sum)
	}
}

func TestMergeReverseInPlace(t *testing.T) {
	a := New([]int{1, 2})
	b := New([]int{3, 4})
	a.Merge(b)
	if a.Len() != 4 {
		t.Fatalf("after Merge, len = %d, want 4", a.Len())
	}
	a.Reverse()
	if a.Items()[0] != 4 || a.Items()[3] != 1 {
		t.Fatalf("after Reverse, items = %v, want [4 3 2 1]", a.Items())
	}
}
