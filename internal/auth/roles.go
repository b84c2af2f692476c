package auth

// HasRole reports whether the claims carry exactly the given role.
func (c *Claims) HasRole(role string) bool {
	return c.Role == role
}

// HasAnyRole reports whether the claims carry at least one of the given roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if c.Role == role {
			return true
		}
	}
	return false
}

// HasAllRoles reports whether the claims satisfy every given role. With a
// single role per user this is only true for an empty list or a list that
// collapses to the user's one role.
func (c *Claims) HasAllRoles(roles ...string) bool {
	for _, role := range roles {
		if c.Role != role {
			return false
		}
	}
	return true
}
