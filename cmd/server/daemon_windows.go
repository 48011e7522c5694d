//go:build windows

package main

import "syscall"

const detachedProcess = 0x00000008

// detachAttr starts the child without a console
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: detachedProcess | syscall.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}
