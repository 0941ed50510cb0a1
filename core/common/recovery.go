package common

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/gogf/gf/v2/frame/g"
)

// RecoverPanic 通用 panic 恢复函数
// 在 defer 中调用，捕获并记录 panic 信息（包含完整堆栈）
func RecoverPanic(ctx context.Context, taskName string) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		g.Log().Criticalf(ctx,
			"[PANIC RECOVERED] Task: %s\nError: %v\nStack Trace:\n%s",
			taskName, r, string(stack))
	}
}

// RecoverToError 捕获 panic 并写入 errp，调用方按普通错误处理
//
// 使用示例:
//
//	func run() (err error) {
//	    defer RecoverToError(ctx, "generate", &err)
//	    ...
//	}
func RecoverToError(ctx context.Context, taskName string, errp *error) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		g.Log().Criticalf(ctx,
			"[PANIC RECOVERED] Task: %s\nError: %v\nStack Trace:\n%s",
			taskName, r, string(stack))
		if errp != nil {
			*errp = fmt.Errorf("panic in %s: %v", taskName, r)
		}
	}
}
