// Package auth issues and validates the bearer tokens of the API.
//
// A single operator account is configured through the environment. Login
// checks the password against a bcrypt hash and returns an HS512-signed JWT
// whose subject is the username.
package auth
