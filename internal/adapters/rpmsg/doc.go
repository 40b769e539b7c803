// Package rpmsg talks to an rpmsg character device: it prepares the
// endpoint through the rpmsg control device and wraps the endpoint fd as a
// non-blocking channel that can deliver readiness as SIGIO.
package rpmsg
