package ticketing

// IsStaff reports whether the member counts as support staff: holding the
// configured support role, the configured admin role, or an administrative or
// guild-management permission. It is a pure predicate with no side effects
// and must be evaluated fresh on every authorization check, since role
// membership can change between ticket creation and claim/close.
func IsStaff(cfg *Config, m *Member) bool {
	if m == nil {
		return false
	}

	for _, role := range m.Roles {
		if cfg.SupportRoleID != "" && role == cfg.SupportRoleID {
			return true
		}
		if cfg.AdminRoleID != "" && role == cfg.AdminRoleID {
			return true
		}
	}

	if m.Permissions&PermissionAdministrator != 0 {
		return true
	}
	if m.Permissions&PermissionManageGuild != 0 {
		return true
	}

	return false
}
