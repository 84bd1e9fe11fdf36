package services

import "github.com/JoaoPizoli/SatMaza/internal/domain"

// Notifier is the contract the lifecycle services have with the notification
// dispatcher. Both methods are fire-and-forget: they spawn the dispatch on
// its own goroutine and never report an error back, so a failed notification
// can never fail the triggering operation.
type Notifier interface {
	// NotifyFinalizationAsync dispatches the final analysis report for the
	// request, selecting recipients from the investigation's outcome flags.
	NotifyFinalizationAsync(requestID string)

	// NotifyRedirectAsync dispatches the redirect notice for req, which must
	// be a snapshot taken after the destination change. previous is the lab
	// the request was moved away from.
	NotifyRedirectAsync(req *domain.Request, previous domain.Lab)
}
