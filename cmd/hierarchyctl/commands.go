package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/lms-content-api/internal/dto"
	"github.com/noah-isme/lms-content-api/internal/hierarchy"
)

type resolver interface {
	Tree(ctx context.Context, q dto.HierarchyQuery) (*dto.HierarchyResponse, bool, error)
	Subjects(ctx context.Context, q dto.SubjectsQuery) (*dto.SubjectsResponse, bool, error)
	Check(ctx context.Context) (*dto.HierarchyCheckReport, error)
}

// problemsFound is returned by check when the data has diagnostics.
type problemsFound struct {
	count int
}

func (p *problemsFound) Error() string {
	return fmt.Sprintf("%d hierarchy problem(s) found", p.count)
}

type outputFormat string

const (
	outputJSON outputFormat = "json"
	outputYAML outputFormat = "yaml"
	outputText outputFormat = "text"
)

func newRootCmd(connect func() (resolver, error)) *cobra.Command {
	var output string

	root := &cobra.Command{
		Use:          "hierarchyctl",
		Short:        "Inspect resolved topic and content trees",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat(output) {
			case outputJSON, outputYAML, outputText:
				return nil
			default:
				return fmt.Errorf("unsupported output %q, want json, yaml or text", output)
			}
		},
	}
	root.PersistentFlags().StringVarP(&output, "output", "o", string(outputText), "output format: text, json or yaml")

	root.AddCommand(newTreeCmd(connect, &output))
	root.AddCommand(newSubjectsCmd(connect, &output))
	root.AddCommand(newCheckCmd(connect, &output))
	return root
}

func newTreeCmd(connect func() (resolver, error), output *string) *cobra.Command {
	var q dto.HierarchyQuery
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the tree for a level, parent or collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			tree, _, err := svc.Tree(cmd.Context(), q)
			if err != nil {
				return err
			}
			if outputFormat(*output) == outputText {
				printTree(cmd.OutOrStdout(), tree)
				return nil
			}
			return encode(cmd.OutOrStdout(), outputFormat(*output), tree)
		},
	}
	cmd.Flags().IntVar(&q.Level, "level", 1, "hierarchy level (1-8)")
	cmd.Flags().StringVar(&q.Parent, "parent", hierarchy.All, "parent id or all")
	cmd.Flags().StringVar(&q.Collection, "collection", hierarchy.All, "collection id or all")
	cmd.Flags().BoolVar(&q.Expand, "expand", false, "expand full subtrees in level mode")
	cmd.Flags().BoolVar(&q.IncludeUnassigned, "unassigned", false, "include content without a topic")
	return cmd
}

func newSubjectsCmd(connect func() (resolver, error), output *string) *cobra.Command {
	var q dto.SubjectsQuery
	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Group content under virtual subject topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			groups, _, err := svc.Subjects(cmd.Context(), q)
			if err != nil {
				return err
			}
			if outputFormat(*output) == outputText {
				w := cmd.OutOrStdout()
				for _, g := range groups.Groups {
					fmt.Fprintf(w, "%s (%d)\n", g.SubjectName, g.ItemCount)
					for _, item := range g.Items {
						fmt.Fprintf(w, "  - %s [%s]\n", item.Title, item.ID)
					}
				}
				return nil
			}
			return encode(cmd.OutOrStdout(), outputFormat(*output), groups)
		},
	}
	cmd.Flags().StringSliceVar(&q.Subjects, "subject", nil, "subject order, repeatable or comma separated")
	cmd.Flags().StringVar(&q.Collection, "collection", hierarchy.All, "collection id or all")
	return cmd
}

func newCheckCmd(connect func() (resolver, error), output *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report cycles, orphans and malformed mappings; exits 1 when any are found",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := connect()
			if err != nil {
				return err
			}
			report, err := svc.Check(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if outputFormat(*output) == outputText {
				fmt.Fprintf(w, "scanned %d topics, %d content items, %d collections\n", report.Topics, report.Content, report.Collections)
				for _, d := range report.Diagnostics {
					fmt.Fprintf(w, "%-18s %-24s %s\n", d.Kind, d.EntityID, d.Detail)
				}
			} else if err := encode(w, outputFormat(*output), report); err != nil {
				return err
			}
			if !report.Healthy() {
				cmd.SilenceErrors = true
				return &problemsFound{count: len(report.Diagnostics)}
			}
			return nil
		},
	}
}

func encode(w io.Writer, format outputFormat, value interface{}) error {
	switch format {
	case outputYAML:
		// Round trip through JSON so yaml keys follow the json tags.
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
}

func printTree(w io.Writer, tree *dto.HierarchyResponse) {
	for _, row := range hierarchy.Flatten(tree.Nodes) {
		marker := ""
		if row.Featured {
			marker = " *"
		}
		fmt.Fprintf(w, "%s%s [%s %s]%s\n", strings.Repeat("  ", row.Depth), row.Title, row.Kind, row.ID, marker)
	}
	if len(tree.Unassigned) > 0 {
		fmt.Fprintln(w, "unassigned:")
		for _, n := range tree.Unassigned {
			fmt.Fprintf(w, "  %s [%s]\n", n.Title, n.ID)
		}
	}
	if len(tree.Diagnostics) > 0 {
		fmt.Fprintf(w, "%d diagnostic(s)\n", len(tree.Diagnostics))
	}
}
