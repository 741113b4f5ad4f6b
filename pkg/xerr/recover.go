package xerr

import (
	"fmt"
	"runtime/debug"
)

// PanicError 被恢复的 panic，Stack 只用于服务端日志
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover 必须直接 defer 调用：defer xerr.Recover(&err)。
// 适用于 gin.Recovery 覆盖不到的 goroutine（例如 singleflight.DoChan 内部），
// panic 转换为 KindInternal 错误写入 *err。
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = Internal(&PanicError{Value: r, Stack: debug.Stack()})
	}
}
