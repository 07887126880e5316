//go:build !windows

package main

func showProjectDescription() {
	if tars != nil {
		tars.log.Info(projectDescription)
	}
}
