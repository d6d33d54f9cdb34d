// Package catalog turns collected answers into categorization tags and orders the
// resources found for those tags by category.
//
// Both operations are pure projections: they own nothing and may be recomputed
// whenever the answers or the candidate resources change.
package catalog
