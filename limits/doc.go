// Package limits provides the client-side size and naming limits applied
// before anything is sent to a fluffy server.
//
// # Limits
//
//   - MaxFileNameLength (255 bytes): the longest file name accepted in an
//     upload. Longer names are rejected by most filesystems the server
//     may store objects on.
//
//   - DefaultMaxUploadBytes (10 MiB): the default ceiling for a single
//     uploaded file or paste. Servers may be configured with a different
//     value, so the ceiling is a setting rather than a constant.
//
// # Validation
//
// Each validation function returns a sentinel error wrapped with the
// offending and permitted sizes:
//
//	if err := limits.ValidateUploadSize(file.Size, settings.MaxUploadBytes); err != nil {
//	    if errors.Is(err, limits.ErrTooLarge) {
//	        // Same recovery path as a server-side 413
//	    }
//	}
//
// A maximum of zero or less disables the size check.
package limits
