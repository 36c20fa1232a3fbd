// internal/models/common.go
package models

import "strings"

// NormalizeAddress lowercases an account address so lookups compare
// case-insensitively regardless of checksum casing.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
