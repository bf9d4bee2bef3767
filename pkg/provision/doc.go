// Package provision drives the provisioning loop.
//
// One cycle is:
//
//	EnterScanMode -> EnterSetup (scan + setup access point)
//	              -> portal.Start (wait for a submission)
//	              -> Connect (join the submitted network)
//
// Any failure inside a cycle is logged, recorded, and the loop starts over from
// scan mode after a backoff delay. Submitted credentials are never retried
// automatically: a failed join reopens the portal so the user can resubmit.
//
// Run returns the credentials of the first cycle that ends connected, or
// ctx.Err() once the context is done. Each cycle carries a random UUID that
// tags every event it produces.
package provision
