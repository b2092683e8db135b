package specnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedSet(t *testing.T) {
	got := SortedSet([]string{"dev", "admin", ""}, []string{"ops", "dev"})
	assert.Equal(t, []string{"admin", "dev", "ops"}, got)
	assert.Equal(t, []string{}, SortedSet())
}

func TestSortBy(t *testing.T) {
	type item struct{ id, tag string }
	items := []item{{"zeta", "a"}, {"alpha", "b"}, {"mid", "c"}, {"alpha", "d"}}
	SortBy(items, func(i item) string { return i.id })
	assert.Equal(t, []item{{"alpha", "b"}, {"alpha", "d"}, {"mid", "c"}, {"zeta", "a"}}, items)
}

func TestFromMapIsKeySorted(t *testing.T) {
	kvs := FromMap(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []string{"a=1", "b=2", "c=3"}, Lines(kvs))
	v, ok := Lookup(kvs, "b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
	assert.Equal(t, "a=1,b=2,c=3", Join(kvs, ","))
}
