package common

import "slices"

// ChannelAllowed reports whether a command issued in current may run given the
// configured music channel. An unset configured channel denies everything.
func ChannelAllowed(current, configured string) bool {
	if !ChannelConfigured(configured) {
		return false
	}
	return current == configured
}

// ChannelConfigured reports whether a music channel id is set
func ChannelConfigured(id string) bool {
	return id != "" && id != "0"
}

// RoleAllowed reports whether any of the caller's role names matches the
// required one. An empty requirement denies everything.
func RoleAllowed(roleNames []string, required string) bool {
	if required == "" {
		return false
	}
	return slices.Contains(roleNames, required)
}
