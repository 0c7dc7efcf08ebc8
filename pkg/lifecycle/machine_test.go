package lifecycle

import (
	"testing"

	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

func TestCanApply(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		status entities.Status
		want   bool
	}{
		{
			name:   "ClaimOpen",
			action: ActionClaim,
			status: entities.StatusOpen,
			want:   true,
		},
		{
			name:   "ClaimPending",
			action: ActionClaim,
			status: entities.StatusPending,
			want:   false,
		},
		{
			name:   "ReassignInProgress",
			action: ActionReassign,
			status: entities.StatusInProgress,
			want:   true,
		},
		{
			name:   "PendingIsReentrant",
			action: ActionPending,
			status: entities.StatusPending,
			want:   true,
		},
		{
			name:   "CloseOrphaned",
			action: ActionClose,
			status: entities.StatusOrphaned,
			want:   false,
		},
		{
			name:   "ReopenClosed",
			action: ActionReopen,
			status: entities.StatusClosed,
			want:   true,
		},
		{
			name:   "ReopenResolved",
			action: ActionReopen,
			status: entities.StatusResolved,
			want:   true,
		},
		{
			name:   "ReopenOrphaned",
			action: ActionReopen,
			status: entities.StatusOrphaned,
			want:   true,
		},
		{
			name:   "UnknownAction",
			action: Action("escalate"),
			status: entities.StatusOpen,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, canApply(tt.action, tt.status))
		})
	}
}
