package server

import "syscall"

// sysProcAttr starts the child in a new session with no controlling
// terminal. Pdeathsig stays unset: the child must outlive the launcher.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
