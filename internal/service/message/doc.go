// Package message implements management of reusable message templates.
package message
