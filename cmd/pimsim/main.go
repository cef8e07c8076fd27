// Command pimsim runs host workloads on a functional PIM DRAM model.
package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("simulation aborted", "panic", r)
			atexit.Exit(2)
		}
	}()

	envErr = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
