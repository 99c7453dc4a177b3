package main

import (
	"fmt"
	"strings"

	escrituras "github.com/LACSistemas/EscriturasNew"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of escrituras",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("escrituras version %s\n", strings.TrimSpace(escrituras.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
