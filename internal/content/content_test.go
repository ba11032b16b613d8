package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd_StripsBlankLines(t *testing.T) {
	var c Content
	c.Add("  first  \r\n\r\n   \nsecond\rthird\n")

	assert.Equal(t, []string{"first", "second", "third"}, c.Lines)
}

func TestAdd_NormalisesHangul(t *testing.T) {
	var c Content
	// U+D55C written as conjoining jamo (NFD).
	c.Add("\u1112\u1161\u11ab")
	assert.Equal(t, []string{"\ud55c"}, c.Lines)
}

func TestText(t *testing.T) {
	c := &Content{Lines: []string{"a", "b"}}
	assert.Equal(t, "a\r\nb\r\n", c.Text())

	var empty *Content
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Text())
}
