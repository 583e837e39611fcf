package structural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DNYoussef/Spek-template-sub011/internal/config"
	"github.com/DNYoussef/Spek-template-sub011/internal/findings"
	"github.com/DNYoussef/Spek-template-sub011/internal/source"
)

func parseFixture(t *testing.T, path, code string) *source.Unit {
	t.Helper()
	unit := source.Parse(path, []byte(code))
	require.True(t, unit.OK(), "fixture must parse: %s", unit.Reason)
	return unit
}

func testProfile(t *testing.T) *config.Profile {
	t.Helper()
	profile, err := config.LoadProfile("default")
	require.NoError(t, err)
	return profile
}

func TestNestingDetector_OutermostOnly(t *testing.T) {
	unit := parseFixture(t, "deep.go", `package demo

func Deep(flags []bool) int {
	if flags[0] {
		if flags[1] {
			if flags[2] {
				if flags[3] {
					if flags[4] {
						if flags[5] {
							return 1
						}
					}
				}
			}
		}
	}
	return 0
}
`)

	found := (&nestingDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 1, "six levels over a limit of four is one finding, not a storm")

	f := found[0]
	assert.Equal(t, "nesting-depth", f.RuleID)
	assert.Equal(t, findings.SeverityCritical, f.Severity)
	assert.Equal(t, 8, f.StartLine, "reported at the outermost node past the limit")
	assert.Equal(t, 6, f.Evidence.Counts["depth"])
	assert.Equal(t, 4, f.Evidence.Counts["limit"])
}

func TestNestingDetector_AtLimitIsClean(t *testing.T) {
	unit := parseFixture(t, "shallow.go", `package demo

func Shallow(flags []bool) int {
	if flags[0] {
		if flags[1] {
			if flags[2] {
				if flags[3] {
					return 1
				}
			}
		}
	}
	return 0
}
`)

	found := (&nestingDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found)
}

func TestNestingDetector_SiblingsReportSeparately(t *testing.T) {
	unit := parseFixture(t, "siblings.go", `package demo

func Twice(flags []bool) {
	if flags[0] {
		if flags[1] {
			if flags[2] {
				if flags[3] {
					if flags[4] {
						println("first")
					}
				}
			}
		}
	}
	if flags[5] {
		if flags[6] {
			if flags[7] {
				if flags[8] {
					if flags[9] {
						println("second")
					}
				}
			}
		}
	}
}
`)

	found := (&nestingDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 2, "independent chains each get their own finding")
	assert.Equal(t, 8, found[0].StartLine)
	assert.Equal(t, 19, found[1].StartLine)
}

func TestLengthDetector(t *testing.T) {
	unit := parseFixture(t, "long.go", `package demo

func Long() {
	println(1)
	println(2)
	println(3)
	println(4)
	println(5)
	println(6)
}

func Short() {
	println(1)
}
`)

	profile := testProfile(t)
	profile.Thresholds.MaxFunctionLines = 5

	found := (&lengthDetector{}).Detect(unit, profile)
	require.Len(t, found, 1)
	assert.Equal(t, "function-length", found[0].RuleID)
	assert.Equal(t, findings.SeverityWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, "Long")
	assert.Equal(t, 8, found[0].Evidence.Counts["lines"])
}

func TestLengthDetector_CriticalAtDouble(t *testing.T) {
	unit := parseFixture(t, "verylong.go", `package demo

func VeryLong() {
	println(1)
	println(2)
	println(3)
	println(4)
	println(5)
	println(6)
	println(7)
	println(8)
}
`)

	profile := testProfile(t)
	profile.Thresholds.MaxFunctionLines = 5

	found := (&lengthDetector{}).Detect(unit, profile)
	require.Len(t, found, 1)
	assert.Equal(t, findings.SeverityCritical, found[0].Severity, "ten lines against a limit of five")
}

func TestAssertionDetector_Deficit(t *testing.T) {
	unit := parseFixture(t, "process.go", `package demo

func Process(values []int) int {
	a := values[0]
	b := values[1]
	c := a + b
	println(a)
	println(b)
	println(c)
	d := c * 2
	e := d - a
	println(d)
	println(e)
	f := e + 1
	return f
}
`)

	found := (&assertionDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 1)

	f := found[0]
	assert.Equal(t, "assertion-density", f.RuleID)
	assert.Equal(t, 0, f.Evidence.Counts["assertions"])
	assert.Equal(t, 12, f.Evidence.Counts["statements"])
	assert.Equal(t, 1, f.Evidence.Counts["deficit"], "one assertion reaches the floor")
}

func TestAssertionDetector_PanicCounts(t *testing.T) {
	unit := parseFixture(t, "guarded.go", `package demo

func Guarded(values []int) int {
	a := values[0]
	b := values[1]
	c := a + b
	println(a)
	println(b)
	println(c)
	d := c * 2
	e := d - a
	println(d)
	println(e)
	if e < 0 {
		panic("negative")
	}
	return e
}
`)

	found := (&assertionDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found, "a panic guard counts as an assertion")
}

func TestAssertionDetector_SmallFunctionsExempt(t *testing.T) {
	unit := parseFixture(t, "small.go", `package demo

func Small() int {
	a := 1
	b := 2
	return a + b
}
`)

	found := (&assertionDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found)
}

func TestGrowthDetector_UnboundedAppend(t *testing.T) {
	unit := parseFixture(t, "collect.go", `package demo

func Collect(ch chan int) []int {
	var out []int
	for {
		v := <-ch
		out = append(out, v)
	}
}
`)

	found := (&growthDetector{}).Detect(unit, testProfile(t))
	require.Len(t, found, 1)
	assert.Equal(t, "bounded-growth", found[0].RuleID)
	assert.Equal(t, findings.SeverityWarning, found[0].Severity)
	assert.Equal(t, 7, found[0].StartLine)
}

func TestGrowthDetector_CapacityCheckIsBounded(t *testing.T) {
	unit := parseFixture(t, "bounded.go", `package demo

func CollectBounded(ch chan int, max int) []int {
	var out []int
	for {
		if len(out) >= max {
			break
		}
		out = append(out, <-ch)
	}
	return out
}
`)

	found := (&growthDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found)
}

func TestGrowthDetector_RangeLoopsAreBounded(t *testing.T) {
	unit := parseFixture(t, "copy.go", `package demo

func Copy(values []int) []int {
	var out []int
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
`)

	found := (&growthDetector{}).Detect(unit, testProfile(t))
	assert.Empty(t, found)
}
