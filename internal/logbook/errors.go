package logbook

import "errors"

var (
	// ErrDriverNotFound aborts the whole call; the driver username did
	// not resolve to a registered driver.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrLogCertified is returned by Ingest when the certified-log policy
	// is "reject" and the target day's log has already been certified.
	ErrLogCertified = errors.New("log already certified")

	// ErrSignatureRequired is returned by Certify for an empty signature.
	ErrSignatureRequired = errors.New("signature required")
)
