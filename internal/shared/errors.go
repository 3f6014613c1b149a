package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrExchangeFailed   = fmt.Errorf("authorization code exchange failed")
	ErrMissingClient    = fmt.Errorf("client registration not found")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API errors
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrRateLimited = fmt.Errorf("rate limited by provider")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrUnknownSetting  = fmt.Errorf("unknown setting")
)
