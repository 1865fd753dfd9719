// Package backend implements the job service interface over HTTP.
package backend

import "github.com/ZaguanLabs/polyglot"

// Backend is an alias to the main package interface for convenience.
type Backend = polyglot.Backend

// JobRequest is an alias to the main package type.
type JobRequest = polyglot.JobRequest

// ResultResponse is an alias to the main package type.
type ResultResponse = polyglot.ResultResponse
