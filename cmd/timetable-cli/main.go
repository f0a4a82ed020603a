package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/config"
	"github.com/noah-isme/timetable-api/pkg/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	LogLevel string `help:"Log level." default:"warn" enum:"debug,info,warn,error"`

	Generate GenerateCmd `cmd:"" help:"Plan a timetable from a CSV snapshot directory."`
	Audit    AuditCmd    `cmd:"" help:"Check a timetable entries file for double bookings and broken lab spans."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("timetable-cli"),
		kong.Description("Offline weekly timetable planner"),
		kong.UsageOnError(),
		kong.Vars{"version": "v1.0.0"},
	)

	logr, err := logger.New(config.EnvDevelopment, config.LogConfig{Level: CLI.LogLevel, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logr.Sync() //nolint:errcheck

	if err := ctx.Run(&runContext{logger: logr, out: os.Stdout}); err != nil {
		logr.Debug("command failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
