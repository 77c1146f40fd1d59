package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize(" \t\n"))
	assert.Equal(t, "spent 5 on food", Normalize("  Spent 5 ON Food \n"))
	assert.Equal(t, "ünïcode", Normalize("ÜNÏCODE"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Food", TitleCase("food"))
	assert.Equal(t, "Food", TitleCase("Food"))
	assert.Equal(t, "Morning run", TitleCase("morning run"))
	assert.Equal(t, "ÉClair", TitleCase("éClair"))
	assert.Equal(t, "9am", TitleCase("9am"))
	assert.Equal(t, "", TitleCase(""))
}

func TestHabitStatus(t *testing.T) {
	for _, s := range []string{"yes", "y", "true", "done", "completed", "complete", "YES"} {
		assert.Equal(t, StatusCompleted, HabitStatus(s), s)
	}
	for _, s := range []string{"no", "n", "false", "skip", "skipped"} {
		assert.Equal(t, StatusSkipped, HabitStatus(s), s)
	}
	assert.Equal(t, "45min", HabitStatus("45"))
	assert.Equal(t, "5min", HabitStatus("5m30"))
	assert.Equal(t, StatusCompleted, HabitStatus("maybe"))
}
