//go:build linux

package rpmsg

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// rpmsgCreateEptIoctl is RPMSG_CREATE_EPT_IOCTL, _IOW(0xb5, 0x1, struct rpmsg_endpoint_info).
const rpmsgCreateEptIoctl = 0x4028b501

// endpointInfo mirrors struct rpmsg_endpoint_info.
type endpointInfo struct {
	Name [32]byte
	Src  uint32
	Dst  uint32
}

func createEndpoint(ctrl, name string, src, dst uint32) error {
	fd, err := unix.Open(ctrl, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	info := endpointInfo{Src: src, Dst: dst}
	copy(info.Name[:len(info.Name)-1], name)

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), rpmsgCreateEptIoctl, uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return errno
	}
	return nil
}
