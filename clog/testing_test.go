package clog

import "io"

// withWriter 测试专用选项，将输出重定向到 w
func withWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}
