package listener

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuilderCheck(t *testing.T) {
	testCases := []struct {
		desc     string
		builder  Builder
		expected int
	}{
		{
			desc:     "valid",
			builder:  Builder{Interval: time.Second, Filters: []string{"type=container"}},
			expected: 0,
		},
		{
			desc:     "filters without key or value",
			builder:  Builder{Interval: time.Second, Filters: []string{"=container", "type="}},
			expected: 2,
		},
		{
			desc:     "everything wrong",
			builder:  Builder{Interval: 0, LookupCacheTTL: -time.Second, DieLimit: -2, Filters: []string{"a", "b=c", "d"}},
			expected: 5,
		},
	}

	for _, test := range testCases {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			errs := test.builder.check()
			if len(errs) != test.expected {
				t.Errorf("check() = %q, want %d errors", errs, test.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	b := &Builder{Interval: time.Second, Format: FormatYAML}
	assert.NoError(t, b.Validate())

	b.Format = "toml"
	b.DieLimit = -1
	err := b.Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Contains(t, err.Error(), "Die limit")
	assert.Contains(t, err.Error(), "unknown format")
}
