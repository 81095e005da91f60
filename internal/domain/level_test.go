package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

func validLevel() RegionLevel {
	return RegionLevel{
		ProjectID:          "p1",
		Name:               "District",
		Rank:               1,
		AcknowledgmentDays: 3,
		ResolutionDays:     15,
		ReminderLeadDays:   2,
	}
}

func TestRegionLevelValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RegionLevel)
		wantErr bool
	}{
		{
			name:   "valid configuration passes",
			mutate: func(l *RegionLevel) {},
		},
		{
			name:    "zero resolution days rejected",
			mutate:  func(l *RegionLevel) { l.ResolutionDays = 0 },
			wantErr: true,
		},
		{
			name:    "negative acknowledgment days rejected",
			mutate:  func(l *RegionLevel) { l.AcknowledgmentDays = -1 },
			wantErr: true,
		},
		{
			name: "acknowledgment window longer than resolution rejected",
			mutate: func(l *RegionLevel) {
				l.AcknowledgmentDays = 10
				l.ResolutionDays = 5
			},
			wantErr: true,
		},
		{
			name:   "zero acknowledgment days allowed",
			mutate: func(l *RegionLevel) { l.AcknowledgmentDays = 0 },
		},
		{
			name:    "reminder lead beyond resolution window rejected",
			mutate:  func(l *RegionLevel) { l.ReminderLeadDays = 99 },
			wantErr: true,
		},
		{
			name:    "negative reminder lead rejected",
			mutate:  func(l *RegionLevel) { l.ReminderLeadDays = -1 },
			wantErr: true,
		},
		{
			name:    "negative rank rejected",
			mutate:  func(l *RegionLevel) { l.Rank = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level := validLevel()
			tt.mutate(&level)

			err := level.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.True(t, apperrors.IsCode(err, "CONFIGURATION_ERROR"))
		})
	}
}
