//go:build windows

package main

import (
	"github.com/lxn/walk"
)

// 显示项目简介的函数 (使用 walk 库创建对话框)
func showProjectDescription() {
	if walk.MsgBox(nil, "About tars",
		projectDescription,
		walk.MsgBoxOK|walk.MsgBoxIconInformation) != walk.DlgCmdOK {
		return
	}
}
