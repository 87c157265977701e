//go:build windows

package vboxmanage

import "syscall"

// Commands run without a GUI request must not flash a console window.
func silentSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: 0x08000000}
}
