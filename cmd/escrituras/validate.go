package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LACSistemas/EscriturasNew/pkg/domain"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the workflow for consistency",
	Long:  `Builds the deed workflow and reports dangling targets, unreachable steps, and option/condition mismatches.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(); err != nil {
			var cfgErr *domain.ConfigurationError
			if errors.As(err, &cfgErr) {
				fmt.Println("Workflow is invalid:")
				for _, issue := range cfgErr.Issues {
					fmt.Printf("  - %s\n", issue)
				}
			} else {
				fmt.Printf("Validation failed: %v\n", err)
			}
			os.Exit(1)
		}
		fmt.Println("Workflow is valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate() error {
	_, err := workflow.NewDeedDefinition(workflow.Toolbox{
		Gateway: workflow.NewGateway(nil),
	})
	return err
}
