// Package resource bounds the resources a search shares across manifolds:
// concurrent volume solves, the rate at which solves start, and the bytes
// held by table caches.
//
// A nil *Controller imposes no limits.
package resource
