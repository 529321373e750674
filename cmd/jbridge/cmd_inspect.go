package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jbridge/jvm"
)

func newInspectCmd() *cobra.Command {
	var entries []string

	cmd := &cobra.Command{
		Use:   "inspect <class>",
		Short: "Show the metadata of a class",
		Args:  cobra.ExactArgs(1),
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
			printDescriptor(cmd, t)
			return nil
		},
	}

	classpathFlag(cmd, &entries)
	return cmd
}

func printDescriptor(cmd *cobra.Command, t *jvm.TypeDescriptor) {
	header := fmt.Sprintf("%s %s %s", t.Mods.Visibility(), t.Kind, t.Name)
	if t.Super != nil && t.Super.Name != "java.lang.Object" {
		header += " extends " + t.Super.Name
	}
	if len(t.Interfaces) > 0 {
		names := make([]string, len(t.Interfaces))
		for i, iface := range t.Interfaces {
			names[i] = iface.Name
		}
		header += " implements " + strings.Join(names, ", ")
	}
	cmd.Println(header)

	if t.Nest != jvm.NestTopLevel {
		line := fmt.Sprintf("  nesting: %s", t.Nest)
		if t.Enclosing != nil {
			line += " in " + t.Enclosing.Name
		}
		cmd.Println(line)
	}

	if len(t.EnumConstants) > 0 {
		cmd.Printf("  constants: %s\n", strings.Join(t.EnumConstants, ", "))
	}

	printFields(cmd, "static fields", t.StaticFields)
	printFields(cmd, "fields", t.Fields)

	if nested := t.NestedClassNames(); len(nested) > 0 {
		sort.Strings(nested)
		cmd.Printf("  nested classes: %s\n", strings.Join(nested, ", "))
	}
}

func printFields(cmd *cobra.Command, label string, fields map[string]*jvm.FieldDescriptor) {
	if len(fields) == 0 {
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	cmd.Printf("  %s:\n", label)
	for _, name := range names {
		f := fields[name]
		line := fmt.Sprintf("    %s %s %s", f.Mods.Visibility(), f.Type.Name, f.Name)
		if f.Constant != nil {
			line += fmt.Sprintf(" = %v", f.Constant)
		}
		cmd.Println(line)
	}
}
