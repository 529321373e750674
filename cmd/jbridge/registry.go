package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/classpath"
)

func classpathFlag(cmd *cobra.Command, entries *[]string) {
	cmd.Flags().StringSliceVarP(entries, "classpath", "c", nil,
		"classpath entry (directory or jar), repeatable")
}

// openRegistry builds a registry over the given classpath entries, defaulting
// to the current directory. The caller closes both.
func openRegistry(entries []string) (*jvm.Registry, *classpath.Path, error) {
	if len(entries) == 0 {
		entries = []string{"."}
	}
	path, err := classpath.New(entries...)
	if err != nil {
		return nil, nil, err
	}
	return jvm.NewRegistry(classpath.NewProvider(path)), path, nil
}
