package secrets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/classy-org/data-dives/internal/secrets"
)

func TestRegionForTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		table  string
		region string
	}{
		{"prod prefix", "prod-accounts", "us-east-1"},
		{"staging prefix", "staging-credentials", "us-west-2"},
		{"unknown prefix", "unknown-accounts", ""},
		{"no separator", "prod", "us-east-1"},
		{"empty table", "", ""},
		{"prefix only matches before first dash", "prod-west-credentials", "us-east-1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.region, secrets.RegionForTable(tt.table))
		})
	}
}
