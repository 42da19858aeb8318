package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkedSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func TestIsCarriedForwardExactAfterNormalization(t *testing.T) {
	checked := checkedSet("test login")

	assert.True(t, IsCarriedForward("Test login!", checked, DefaultMatchOptions()))
	assert.True(t, IsCarriedForward("  TEST   LOGIN  ", checked, DefaultMatchOptions()))
}

func TestIsCarriedForwardContainment(t *testing.T) {
	checked := checkedSet("test login with invalid credentials")

	assert.True(t, IsCarriedForward(
		"test login with invalid credentials and bad password", checked, DefaultMatchOptions()))

	// Containment works in both directions.
	longChecked := checkedSet("verify the export button downloads a CSV file with all rows")
	assert.True(t, IsCarriedForward("export button downloads a CSV", longChecked, DefaultMatchOptions()))
}

func TestIsCarriedForwardWordOverlap(t *testing.T) {
	checked := checkedSet("verify user can reset password via email link")

	// 6 of 7 candidate words overlap, above the default threshold, and
	// neither string contains the other.
	assert.True(t, IsCarriedForward(
		"user can reset password via email quickly", checked, DefaultMatchOptions()))
}

func TestIsCarriedForwardNoOverlap(t *testing.T) {
	assert.False(t, IsCarriedForward("B", checkedSet("A"), DefaultMatchOptions()))
	assert.False(t, IsCarriedForward("check pagination", checkedSet("verify logout flow"), DefaultMatchOptions()))
}

func TestIsCarriedForwardBelowThreshold(t *testing.T) {
	checked := checkedSet("verify login page loads quickly on mobile")

	// Only 2 of 5 candidate words overlap.
	assert.False(t, IsCarriedForward("verify signup form validation login", checked, DefaultMatchOptions()))
}

func TestIsCarriedForwardThresholdOverride(t *testing.T) {
	checked := checkedSet("alpha beta gamma delta")
	candidate := "alpha beta epsilon zeta"

	// 2 of 4 shared words.
	assert.False(t, IsCarriedForward(candidate, checked, DefaultMatchOptions()))
	assert.True(t, IsCarriedForward(candidate, checked, MatchOptions{OverlapThreshold: 0.5}))
}

func TestIsCarriedForwardEmptyInputs(t *testing.T) {
	assert.False(t, IsCarriedForward("anything", nil, DefaultMatchOptions()))
	assert.False(t, IsCarriedForward("", checkedSet("test login"), DefaultMatchOptions()))
	assert.False(t, IsCarriedForward("!!! ...", checkedSet("test login"), DefaultMatchOptions()))
	assert.False(t, IsCarriedForward("test login", checkedSet("", "   "), DefaultMatchOptions()))
}

func TestIsCarriedForwardOrderIndependent(t *testing.T) {
	// The same set contents must yield the same answer no matter how Go
	// iterates the map; run enough times to shuffle iteration order.
	checked := checkedSet("unrelated one", "unrelated two", "test login", "unrelated three")
	for range 50 {
		assert.True(t, IsCarriedForward("Test Login", checked, DefaultMatchOptions()))
	}
}

func TestNormalizeScenario(t *testing.T) {
	assert.Equal(t, "test login", normalizeScenario("  Test, Login!  "))
	assert.Equal(t, "a b c", normalizeScenario("a\tb\nc"))
	assert.Equal(t, "", normalizeScenario("?!,."))
}
