package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morinoparty/mpm/internal/application/dto"
)

func newDepsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Inspect plugin dependency relationships",
	}
	cmd.AddCommand(newDepsTreeCmd())
	cmd.AddCommand(newDepsCheckCmd())
	cmd.AddCommand(newDepsReverseCmd())
	cmd.AddCommand(newDepsInfoCmd())
	return cmd
}

func printDepTree(node *dto.DependencyTreeNode, depth int) {
	marker := ""
	if node.Missing {
		marker = " (missing)"
	}
	fmt.Printf("%s%s%s\n", strings.Repeat("  ", depth), node.Name, marker)
	for _, child := range node.Children {
		printDepTree(child, depth+1)
	}
}

func newDepsTreeCmd() *cobra.Command {
	var includeSoft bool
	cmd := &cobra.Command{
		Use:   "tree <name>",
		Short: "Print the hard (and optionally soft) dependency tree of a plugin",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			tree, err := ctx.Container.DependencyAnalyzer().BuildDependencyTree(ctx.Context, args[0], includeSoft)
			if err != nil {
				return err
			}
			printDepTree(tree, 0)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&includeSoft, "soft", false, "include soft dependencies in the tree")
	return cmd
}

func newDepsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <name>",
		Short: "Report dependencies declared by installed plugins but not installed",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			missing, err := ctx.Container.DependencyAnalyzer().CheckMissingDependencies(ctx.Context, args[0])
			if err != nil {
				return err
			}
			if len(missing) == 0 {
				fmt.Println("No missing dependencies")
				return nil
			}
			for name, deps := range missing {
				fmt.Printf("%s requires missing: %s\n", name, strings.Join(deps, ", "))
			}
			return nil
		}),
	}
}

func newDepsReverseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reverse <name>",
		Short: "List installed plugins that depend on the named plugin",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			reverse, err := ctx.Container.DependencyAnalyzer().GetReverseDependencies(ctx.Context, args[0])
			if err != nil {
				return err
			}
			if len(reverse) == 0 {
				fmt.Println("Nothing depends on this plugin")
				return nil
			}
			for _, name := range reverse {
				fmt.Println(name)
			}
			return nil
		}),
	}
}

func newDepsInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show the raw dependency declaration read from a plugin's descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: withContainer(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			info, err := ctx.Container.DependencyAnalyzer().GetDependencyInfo(ctx.Context, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("depend:     %s\n", strings.Join(info.Depend, ", "))
			fmt.Printf("softDepend: %s\n", strings.Join(info.SoftDepend, ", "))
			fmt.Printf("loadBefore: %s\n", strings.Join(info.LoadBefore, ", "))
			return nil
		}),
	}
}

func init() {
	rootCmd.AddCommand(newDepsCmd())
}
