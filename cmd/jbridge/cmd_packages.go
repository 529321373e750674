package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/jbridge/jvm/classpath"
)

func newPackagesCmd() *cobra.Command {
	var entries []string

	cmd := &cobra.Command{
		Use:   "packages [package]",
		Short: "List the classes and subpackages of a package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(entries) == 0 {
				entries = []string{"."}
			}
			path, err := classpath.New(entries...)
			if err != nil {
				return err
			}
			defer path.Close()

			pkg := ""
			if len(args) == 1 {
				pkg = args[0]
			}
			classes, subpackages := path.Package(pkg)
			for _, sub := range subpackages {
				if pkg == "" {
					cmd.Printf("package %s\n", sub)
				} else {
					cmd.Printf("package %s.%s\n", pkg, sub)
				}
			}
			for _, class := range classes {
				cmd.Printf("class %s\n", class)
			}
			return nil
		},
	}

	classpathFlag(cmd, &entries)
	return cmd
}
