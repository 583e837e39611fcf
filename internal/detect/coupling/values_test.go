package coupling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
)

func TestValueDetector_RepeatedLiteral(t *testing.T) {
	unit := parseFixture(t, "dial.go", `package demo

func Dial() (string, string) {
	primary := "redis:6379"
	fallback := "redis:6379"
	println("redis:6379")
	return primary, fallback
}
`)

	found := (&valueDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 1, "one finding per repeated value, not per site")

	f := found[0]
	assert.Equal(t, "coupling-value", f.RuleID)
	assert.Equal(t, findings.SeverityWarning, f.Severity)
	assert.Equal(t, 4, f.StartLine, "reported at the first site")
	assert.Equal(t, 3, f.Evidence.Counts["sites"])
	assert.Equal(t, `"redis:6379"`, f.Evidence.Snippet)
}

func TestValueDetector_BelowThreshold(t *testing.T) {
	unit := parseFixture(t, "pair.go", `package demo

func Pair() (string, string) {
	return "redis:6379", "redis:6379"
}
`)

	found := (&valueDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found, "two sites on one line stay under the default threshold")
}

func TestValueDetector_TrivialValuesIgnored(t *testing.T) {
	unit := parseFixture(t, "zeros.go", `package demo

func Zeros() int {
	a := 0
	b := 0
	c := 0
	return a + b + c
}
`)

	found := (&valueDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found)
}

func TestMeaningDetector_MagicNumbers(t *testing.T) {
	unit := parseFixture(t, "limits.go", `package demo

func Expired(age int) bool {
	if age > 86400 {
		return true
	}
	return false
}

func Retry() {
	println(3)
}
`)

	found := (&meaningDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 2)

	assert.Equal(t, "3", found[0].Evidence.Snippet)
	assert.Equal(t, "86400", found[1].Evidence.Snippet)
	for _, f := range found {
		assert.Equal(t, "coupling-meaning", f.RuleID)
		assert.Equal(t, findings.SeverityInfo, f.Severity)
	}
}

func TestMeaningDetector_NamedNumbersAreFine(t *testing.T) {
	unit := parseFixture(t, "named.go", `package demo

func Configure() {
	timeout := 3600
	println(timeout)
}
`)

	found := (&meaningDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found, "a number bound to a name carries its meaning")
}
