// Package timesvc fetches the current UTC time from an HTTP time API once
// the device is online.
//
// The default endpoint answers
//
//	GET https://www.timeapi.io/api/Time/current/zone?timeZone=UTC
//
// with a JSON document whose "dateTime" field holds a local timestamp without
// zone suffix, e.g. "2026-10-17T09:41:07.1234567". Requests are retried with
// backoff (go-retryablehttp) and guarded by a circuit breaker (gobreaker) so
// an unreachable service is not hammered every poll.
package timesvc
