package middleware

import "github.com/openrelief/surveyflow/pkg/ports"

// Middleware wraps a SubmissionStore to add behavior.
type Middleware func(ports.SubmissionStore) ports.SubmissionStore

// Chain applies middlewares so the first one listed is the outermost.
func Chain(store ports.SubmissionStore, mws ...Middleware) ports.SubmissionStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
