//go:build !windows

package vboxmanage

import "syscall"

func silentSysProcAttr() *syscall.SysProcAttr {
	return nil
}
