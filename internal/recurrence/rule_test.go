package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	freq, ok := ParseFrequency(" Weekly ")
	require.True(t, ok)
	assert.Equal(t, FrequencyWeekly, freq)

	_, ok = ParseFrequency("yearly")
	assert.False(t, ok)
}

func TestRepair(t *testing.T) {
	t.Parallel()

	t.Run("valid descriptor is kept", func(t *testing.T) {
		t.Parallel()
		end := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
		rule, repaired := Repair("monthly", 2, &end)
		assert.Empty(t, repaired)
		assert.Equal(t, FrequencyMonthly, rule.Frequency)
		assert.Equal(t, 2, rule.Interval)
		require.NotNil(t, rule.EndDate)
		assert.True(t, rule.EndDate.Equal(end))
		assert.NoError(t, rule.Validate())
	})

	t.Run("unknown frequency and interval are coerced", func(t *testing.T) {
		t.Parallel()
		rule, repaired := Repair("fortnightly", 0, nil)
		assert.Equal(t, []string{"type", "interval"}, repaired)
		assert.Equal(t, FrequencyWeekly, rule.Frequency)
		assert.Equal(t, 1, rule.Interval)
		assert.Nil(t, rule.EndDate)
	})
}

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, Rule{Frequency: "hourly", Interval: 1}.Validate(), ErrInvalidFrequency)
	assert.ErrorIs(t, Rule{Frequency: FrequencyDaily}.Validate(), ErrInvalidInterval)
}

func TestRuleClone(t *testing.T) {
	t.Parallel()

	end := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	rule := &Rule{Frequency: FrequencyDaily, Interval: 1, EndDate: &end}
	clone := rule.Clone()
	*clone.EndDate = end.AddDate(0, 1, 0)

	assert.True(t, rule.EndDate.Equal(end))
	assert.Nil(t, (*Rule)(nil).Clone())
}
