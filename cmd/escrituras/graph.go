package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LACSistemas/EscriturasNew/internal/presentation/graph"
	"github.com/LACSistemas/EscriturasNew/pkg/workflow"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) representing the deed interview flow.`,
	Run: func(cmd *cobra.Command, args []string) {
		def, err := workflow.NewDeedDefinition(workflow.Toolbox{
			Gateway: workflow.NewGateway(nil),
		})
		if err != nil {
			fmt.Printf("Error building workflow: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(graph.GenerateMermaid(def, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
