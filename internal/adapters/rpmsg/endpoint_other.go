//go:build !linux

package rpmsg

import "errors"

func createEndpoint(ctrl, name string, src, dst uint32) error {
	return errors.New("rpmsg endpoints require linux")
}
