package ticketing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsStaff(t *testing.T) {
	cfg := &Config{
		SupportRoleID: "role-support",
		AdminRoleID:   "role-admin",
	}

	tests := []struct {
		name   string
		cfg    *Config
		member *Member
		want   bool
	}{
		{
			name:   "nil member",
			cfg:    cfg,
			member: nil,
			want:   false,
		},
		{
			name:   "no roles no permissions",
			cfg:    cfg,
			member: &Member{UserID: "u", Roles: []string{"role-other"}},
			want:   false,
		},
		{
			name:   "support role",
			cfg:    cfg,
			member: &Member{UserID: "u", Roles: []string{"role-other", "role-support"}},
			want:   true,
		},
		{
			name:   "admin role",
			cfg:    cfg,
			member: &Member{UserID: "u", Roles: []string{"role-admin"}},
			want:   true,
		},
		{
			name:   "administrator permission",
			cfg:    cfg,
			member: &Member{UserID: "u", Permissions: PermissionAdministrator},
			want:   true,
		},
		{
			name:   "manage guild permission",
			cfg:    cfg,
			member: &Member{UserID: "u", Permissions: PermissionManageGuild},
			want:   true,
		},
		{
			name:   "unrelated permissions",
			cfg:    cfg,
			member: &Member{UserID: "u", Permissions: PermissionSendMessages | PermissionViewChannel},
			want:   false,
		},
		{
			name: "support role not configured",
			cfg:  &Config{AdminRoleID: "role-admin"},
			// An empty configured role must never match an empty role slot.
			member: &Member{UserID: "u", Roles: []string{""}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsStaff(tt.cfg, tt.member))
		})
	}
}
