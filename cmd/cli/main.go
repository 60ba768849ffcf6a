package main

import (
	"os"

	"github.com/yefosr/cms-backend/cmd/cli/audit"
	"github.com/yefosr/cms-backend/cmd/cli/auth"
	"github.com/yefosr/cms-backend/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	audit.InitAudit(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
