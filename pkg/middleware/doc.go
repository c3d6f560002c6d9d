// Package middleware provides stock middleware for fin processors: action
// logging, prometheus metrics, name-based vetoes, and payload validation.
// Each constructor returns a fin.MiddlewareFunc that can be registered on
// either the pre or post chain.
package middleware
