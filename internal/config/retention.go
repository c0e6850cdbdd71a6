package config

// EffectiveKeep maps a configured keep_release onto the count the retention sweep uses.
// Values below 1 keep only the newest archive.
func EffectiveKeep(keep int) int {
	if keep < 1 {
		return 1
	}
	return keep
}

// KeepWarning returns a message when keep_release will be adjusted, or "".
func KeepWarning(keep int) string {
	if keep >= 1 {
		return ""
	}
	return "keep_release below 1 is treated as 1: only the newest archive is kept"
}
