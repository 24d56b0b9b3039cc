// Package github fetches workflow DSL files from GitHub repositories.
//
// It wraps the go-github client with rate limiting and implements the
// core's RepoFetcher port: one recursive tree listing per source, then
// bounded-concurrency blob fetches with per-file failure isolation.
package github
