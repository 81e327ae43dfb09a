package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/schemagraph/internal/engine"
	"github.com/HendryAvila/schemagraph/internal/httpapi"
	"github.com/HendryAvila/schemagraph/internal/schema"
)

// exploreArg validates the template ID argument.
func exploreArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if !schema.IsInstanceID(args[0]) {
		return fmt.Errorf("template ID must be a resource ID like R186491, got %q", args[0])
	}
	return nil
}

// runExport explores args[0] and writes project(result) as indented JSON.
func runExport(cmd *cobra.Command, flags *globalFlags, id, output string, project func(*engine.Result) any) error {
	deps, cleanup, err := flags.loadDeps(cmd, nil)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := deps.Explorer.Explore(commandContext(cmd), id)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(project(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	return writeOutput(cmd, output, append(data, '\n'))
}

func newGraphCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "graph <template-id>",
		Short: "Print the positioned schema graph as JSON",
		Example: `  schemagraph graph R186491
  schemagraph graph R186491 -o graph.json`,
		Args: exploreArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, args[0], output, func(r *engine.Result) any { return r.Graph })
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newFlowCmd(flags *globalFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "flow <template-id>",
		Short: "Print the nested template tree as JSON",
		Args:  exploreArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, flags, args[0], output, func(r *engine.Result) any { return r.Root })
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newMappingCmd(flags *globalFlags) *cobra.Command {
	var (
		output   string
		download bool
	)
	cmd := &cobra.Command{
		Use:   "mapping <template-id>",
		Short: "Export the predicate mapping as JSON",
		Long: `Export the predicate mapping of a template. With --download the file is
written as <template-id>-predicates-mapping.json in the current directory.`,
		Example: `  schemagraph mapping R186491
  schemagraph mapping R186491 --download`,
		Args: exploreArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			if download && output == "" {
				output = httpapi.MappingFilename(args[0])
			}
			return runExport(cmd, flags, args[0], output, func(r *engine.Result) any { return r.Mapping })
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&download, "download", false, "write <template-id>-predicates-mapping.json")
	return cmd
}

func newPromptCmd(flags *globalFlags) *cobra.Command {
	var (
		output   string
		question string
	)
	cmd := &cobra.Command{
		Use:     "prompt <template-id>",
		Short:   "Print the SPARQL generation prompt for a template",
		Example: `  schemagraph prompt R186491 --question "Which statistical tests are used most?"`,
		Args:    exploreArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, cleanup, err := flags.loadDeps(cmd, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := deps.Explorer.Explore(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			prompt, err := deps.Renderer.Prompt(res.RootTemplate(), res.Mapping, question)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, []byte(prompt))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().StringVarP(&question, "question", "q", "", "research question to embed in the prompt")
	return cmd
}
