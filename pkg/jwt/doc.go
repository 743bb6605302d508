// Package jwt implements HMAC-SHA256 signed tokens with registered claim
// validation. Both the 24-hour admin session credential and the 1-hour
// password-reset credential are issued through this package, distinguished
// by an application-level token-type claim rather than separate key
// material.
package jwt
