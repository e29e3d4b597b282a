package main

import (
	"context"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/sirupsen/logrus"

	"nebula-nodeconf/pkg/logging"
)

func main() {
	logging.Setup(false)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := RootCmd(NewCLI(path.Base(os.Args[0]))).ExecuteContext(ctx)
	cancel()
	if err != nil {
		reportError(logrus.StandardLogger(), err)
		os.Exit(exitCode(err))
	}
}
