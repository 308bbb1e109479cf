package extension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/projectpulse/pulse/core/extension"
)

func TestQueryFilter_Match(t *testing.T) {
	req := extension.Request{Status: extension.StatusPending, RequesterID: "u1", ProjectID: "p1"}

	tests := []struct {
		name   string
		filter extension.QueryFilter
		want   bool
	}{
		{name: "empty", filter: extension.QueryFilter{}, want: true},
		{name: "status", filter: extension.QueryFilter{Status: extension.StatusPending}, want: true},
		{name: "other status", filter: extension.QueryFilter{Status: extension.StatusApproved}, want: false},
		{name: "requester", filter: extension.QueryFilter{RequesterID: "u1"}, want: true},
		{name: "other requester", filter: extension.QueryFilter{RequesterID: "u2"}, want: false},
		{name: "all set", filter: extension.QueryFilter{Status: extension.StatusPending, RequesterID: "u1", ProjectID: "p1"}, want: true},
		{name: "one mismatch", filter: extension.QueryFilter{Status: extension.StatusPending, RequesterID: "u1", ProjectID: "p2"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(req))
		})
	}
}
