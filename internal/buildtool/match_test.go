package buildtool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareResults_InOrderWholeWordCaseInsensitive(t *testing.T) {
	assert.True(t, CompareResults("Result is HELLO then world!", []string{"hello", "world"}))
}

func TestCompareResults_RejectsOutOfOrder(t *testing.T) {
	assert.False(t, CompareResults("world then hello", []string{"hello", "world"}))
}

func TestCompareResults_RejectsPartialWordMatch(t *testing.T) {
	assert.False(t, CompareResults("helloworld", []string{"hello"}))
}

func TestCompareResults_AllowsExtraneousOutput(t *testing.T) {
	assert.True(t, CompareResults("noise\nanswer: 42\nmore noise\ndone: true\n", []string{"42", "true"}))
}

func TestCompareResults_ConsumesFirstMatchBeforeNext(t *testing.T) {
	assert.True(t, CompareResults("1 1 2", []string{"1", "1", "2"}))
	assert.False(t, CompareResults("1 2", []string{"1", "1", "2"}))
}

func TestCompareResults_MissingExpectedFails(t *testing.T) {
	assert.False(t, CompareResults("only one value here", []string{"one", "two"}))
}

func TestStripAntPrefix(t *testing.T) {
	lines := []string{"[java] hello", "build.xml output", "[java] world"}
	assert.Equal(t, []string{" hello", " world"}, StripAntPrefix(lines))
}
