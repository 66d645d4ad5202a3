// Package logger builds the service's zap logger and the field helpers that
// keep recipient addresses out of log output.
package logger

import "strings"

// RedactEmail masks the local part of an address, keeping the first two
// characters when the local part is longer than two.
//
//	john.doe@example.com -> jo***@example.com
//	ab@example.com       -> ***@example.com
func RedactEmail(email string) string {
	local, host, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(host, "@") {
		return "***@***"
	}
	if r := []rune(local); len(r) > 2 {
		return string(r[:2]) + "***@" + host
	}
	return "***@" + host
}
