// xscaffold 是图书目录示例服务，内置日志、指标与链路追踪。
//
// 用法:
//
//	xscaffold serve [--config 文件] [--addr 地址]
//	xscaffold version
//
// 配置按 默认值 → 配置文件 → 环境变量 叠加，--addr 优先于所有来源。
//
// 退出码:
//
//	0: 正常退出（包括收到 SIGINT/SIGTERM 后的优雅停机）
//	1: 启动或运行失败
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xscaffold/internal/config"
)

// 构建信息（通过 -ldflags 注入）
var (
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	if err := createApp(stderr).Run(ctx, args); err != nil {
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// createApp 创建 CLI 应用。
func createApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xscaffold",
		Usage:     "图书目录示例服务",
		Version:   versionString(),
		Writer:    out,
		ErrWriter: out,
		Commands: []*cli.Command{
			serveCommand(),
			versionCommand(),
		},
		DefaultCommand: "serve",
		// 设计决策: 错误统一由 run() 输出并映射退出码
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", config.Version, GitCommit, BuildTime)
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "打印版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, versionString())
			return err
		},
	}
}
