package clash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusNew, StatusActive, true},
		{StatusNew, StatusResolved, true},
		{StatusNew, StatusIgnored, true},
		{StatusActive, StatusApproved, true},
		{StatusActive, StatusNew, false},
		{StatusResolved, StatusActive, true},
		{StatusResolved, StatusApproved, false},
		{StatusApproved, StatusActive, true},
		{StatusIgnored, StatusActive, true},
		{StatusIgnored, StatusResolved, false},
		{StatusActive, StatusActive, true},
		{StatusNew, Status("bogus"), false},
		{Status("bogus"), Status("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseStatus("closed")
	assert.Error(t, err)
}

func TestCheckTypeSeverity(t *testing.T) {
	assert.Equal(t, SeverityHard, CheckHard.Severity())
	assert.Equal(t, SeveritySoft, CheckSoft.Severity())
}

func TestElementRefString(t *testing.T) {
	r := ElementRef{ModelID: "mep", ExpressID: 7, Type: "IfcPipeSegment"}
	assert.Equal(t, "mep:7 IfcPipeSegment", r.String())
	r.Name = "P-1"
	assert.Equal(t, "mep:7 IfcPipeSegment (P-1)", r.String())
}
