package auth

import "errors"

var (
	// ErrUnauthenticated indicates no session backs the request.
	ErrUnauthenticated = errors.New("auth: not authenticated")
	// ErrProfileRequired indicates the account exists on the platform but
	// has no profile row, so no role can be established.
	ErrProfileRequired = errors.New("auth: profile required")
	// ErrForbidden indicates the viewer's role does not meet the route's
	// requirement.
	ErrForbidden = errors.New("auth: insufficient role")
)
