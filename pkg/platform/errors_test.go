package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/stretchr/testify/require"
)

func restErr(code int) error {
	return &discordgo.RESTError{
		Message: &discordgo.APIErrorMessage{
			Code:    code,
			Message: "boom",
		},
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "Sentinel",
			err:  ErrNotFound,
			want: true,
		},
		{
			name: "WrappedSentinel",
			err:  fmt.Errorf("error getting channel: %w", ErrNotFound),
			want: true,
		},
		{
			name: "UnknownChannel",
			err:  fmt.Errorf("error getting channel: %w", restErr(discordgo.ErrCodeUnknownChannel)),
			want: true,
		},
		{
			name: "MissingPermissions",
			err:  restErr(discordgo.ErrCodeMissingPermissions),
			want: false,
		},
		{
			name: "Plain",
			err:  errors.New("network down"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsNotFound(tt.err))
		})
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "NotFound",
			err:  ErrNotFound,
			want: true,
		},
		{
			name: "MissingAccess",
			err:  restErr(discordgo.ErrCodeMissingAccess),
			want: true,
		},
		{
			name: "MissingPermissions",
			err:  fmt.Errorf("error sending message: %w", restErr(discordgo.ErrCodeMissingPermissions)),
			want: true,
		},
		{
			name: "Timeout",
			err:  errors.New("context deadline exceeded"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsPermanent(tt.err))
		})
	}
}
