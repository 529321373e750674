package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jbridge/jvm"
)

func newMethodsCmd() *cobra.Command {
	var entries []string

	cmd := &cobra.Command{
		Use:   "methods <class> [name]",
		Short: "List the callable methods of a class",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, path, err := openRegistry(entries)
			if err != nil {
				return err
			}
			defer path.Close()
			defer reg.Close()

			t, err := reg.Resolve(args[0])
			if err != nil {
				return err
			}

			filter := ""
			if len(args) == 2 {
				filter = args[1]
			}

			if filter == "" || filter == "<init>" {
				for _, m := range t.Ctors.Methods {
					cmd.Printf("constructor %s\n", m.Signature())
				}
			}
			printGroups(cmd, "static", t.StaticMethods, filter)
			printMergedMethods(cmd, t, filter)
			return nil
		},
	}

	classpathFlag(cmd, &entries)
	return cmd
}

func printGroups(cmd *cobra.Command, label string, groups map[string]*jvm.MethodGroup, filter string) {
	names := make([]string, 0, len(groups))
	for name := range groups {
		if filter == "" || name == filter {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		for _, m := range groups[name].Methods {
			cmd.Printf("%s %s%s\n", label, m.Signature(), throwsClause(m))
		}
	}
}

func throwsClause(m *jvm.MethodDescriptor) string {
	if len(m.Throws) == 0 {
		return ""
	}
	names := make([]string, len(m.Throws))
	for i, exc := range m.Throws {
		names[i] = exc.Name
	}
	return " throws " + strings.Join(names, ", ")
}

// printMergedMethods lists instance methods the way dispatch sees them, with
// inherited overloads merged into each group.
func printMergedMethods(cmd *cobra.Command, t *jvm.TypeDescriptor, filter string) {
	seen := make(map[string]bool)
	var names []string
	for c := t; c != nil; c = c.Super {
		for name := range c.Methods {
			if !seen[name] && (filter == "" || name == filter) {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	for _, name := range names {
		group, err := t.LookupMethods(name)
		if err != nil {
			continue
		}
		for _, m := range group.Methods {
			cmd.Printf("method %s%s\n", m.Signature(), throwsClause(m))
		}
	}
}
