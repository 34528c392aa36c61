package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/translens/go-llm-translator/internal/cli"
	"github.com/translens/go-llm-translator/internal/logger"
)

// 版本信息，由构建时注入
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	log := logger.NewLogger(false)
	defer func() {
		_ = log.Sync()
	}()

	rootCmd := cli.NewRootCommand(Version, Commit, BuildDate)
	if err := rootCmd.Execute(); err != nil {
		log.Error("执行命令失败", zap.Error(err))
		os.Exit(1)
	}
}
