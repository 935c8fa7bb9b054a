package prompt

import (
	"fmt"
	"net/http"

	"github.com/ashwini-1013/org-workspace/internal/core/domain"
)

// StatusError maps a non-2xx backend status to an error. 429 and 503 are
// transient and carry the matching kind; other 5xx codes report the backend
// unavailable; everything else is permanent.
func StatusError(backend string, status int, detail string) error {
	err := fmt.Errorf("%s: unexpected status %d", backend, status)
	if detail != "" {
		err = fmt.Errorf("%s: unexpected status %d: %s", backend, status, detail)
	}
	switch {
	case status == http.StatusTooManyRequests:
		return &domain.TransientBackendError{Kind: domain.KindRateLimited, Err: err}
	case status == http.StatusServiceUnavailable:
		return &domain.TransientBackendError{Kind: domain.KindModelLoading, Err: err}
	case status >= 500:
		return &domain.TransientBackendError{Kind: domain.KindUnavailable, Err: err}
	default:
		return err
	}
}
