// Package mailing implements mailing scheduling: pairing one message with a
// set of clients and a send window.
//
// Non-managers may only reference messages and clients they own. Windows
// must start in the future and end after they start. Delivery itself lives
// in service/sending; this package only exposes the attempt log it writes.
package mailing
