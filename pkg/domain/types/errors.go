package types

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrTagAuth marks a request rejected because of an invalid shared secret
	ErrTagAuth = goerr.NewTag("auth")
	// ErrTagValidation marks a structurally invalid deployment request
	ErrTagValidation = goerr.NewTag("validation")
	// ErrTagDecode marks a malformed attachment data URI
	ErrTagDecode = goerr.NewTag("decode")
	// ErrTagGeneration marks model output without a usable index.html
	ErrTagGeneration = goerr.NewTag("generation")
	// ErrTagPublish marks a repository lookup, creation or file write failure
	ErrTagPublish = goerr.NewTag("publish")
	// ErrTagHosting marks a non-fatal Pages enablement failure
	ErrTagHosting = goerr.NewTag("hosting")
	// ErrTagNotifyExhausted marks a callback that failed on every attempt
	ErrTagNotifyExhausted = goerr.NewTag("notify_exhausted")
	// ErrTagNotFound marks a missing remote resource
	ErrTagNotFound = goerr.NewTag("not_found")
	// ErrTagQueueFull marks a job rejected because the queue is full or closed
	ErrTagQueueFull = goerr.NewTag("queue_full")
)
