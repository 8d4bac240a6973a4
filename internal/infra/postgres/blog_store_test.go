package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPatternEscapesWildcards(t *testing.T) {
	cases := map[string]string{
		"budget":      `%budget%`,
		"100%":        `%100\%%`,
		"snake_case":  `%snake\_case%`,
		`C:\savings`:  `%C:\\savings%`,
		`50%_off\now`: `%50\%\_off\\now%`,
	}
	for term, want := range cases {
		assert.Equal(t, want, containsPattern(term), term)
	}
}
