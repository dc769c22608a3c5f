package interfaces

import "time"

// AuthServiceInterface issues and verifies bearer identity tokens
type AuthServiceInterface interface {
	Issue(identity string) (string, error)
	Verify(token string) (string, error)
	Expiry() time.Duration
}
