//go:build !windows

package main

import "syscall"

// detachAttr starts the child in a new session
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
