package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/jbridge/jvm"
	"github.com/dhamidi/jbridge/jvm/convert"
	"github.com/dhamidi/jbridge/jvm/dispatch"
)

func newResolveCmd() *cobra.Command {
	var entries []string
	var static bool

	cmd := &cobra.Command{
		Use:   "resolve <class> <method> [arg...]",
		Short: "Show which overload a call would dispatch to",
		Long: `Resolve a call against the overloads of a method and print the winner.

Arguments are literals: integers, floats, true/false, null, or anything
else as a string. Quote a number to force a string ("42").

Examples:
  jbridge resolve java.lang.String valueOf 42
  jbridge resolve -c app/classes com.example.Fmt format pattern 1 2 3`,
		Args: cobra.MinimumNArgs(2),
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

			name := args[1]
			var group *jvm.MethodGroup
			switch {
			case name == "<init>":
				group = t.Ctors
			case static:
				group, err = t.LookupStaticMethods(name)
			default:
				group, err = t.LookupMethods(name)
			}
			if err != nil {
				return err
			}

			callArgs := make([]any, len(args)-2)
			for i, raw := range args[2:] {
				callArgs[i] = parseLiteral(raw)
			}

			cand, err := dispatch.ResolveOverload(convert.NewCatalog(), group, callArgs)
			if err != nil {
				return err
			}

			cmd.Printf("resolved: %s\n", cand.Method.Signature())
			if cand.Kind == dispatch.MatchDirectVarargArray {
				cmd.Println("  the last argument is passed as the vararg array itself")
			} else if cand.Method.Variadic {
				cmd.Println("  trailing arguments are collected into the vararg array")
			}
			for i, q := range cand.Qualities {
				cmd.Printf("  arg %d: %s (%s)\n", i, describeLiteral(callArgs[i]), q)
			}
			return nil
		},
	}

	classpathFlag(cmd, &entries)
	cmd.Flags().BoolVarP(&static, "static", "s", false, "resolve a static method")
	return cmd
}

func parseLiteral(raw string) any {
	switch raw {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(raw, `"`) && strings.HasSuffix(raw, `"`) && len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func describeLiteral(arg any) string {
	if arg == nil {
		return "null"
	}
	return fmt.Sprintf("%v", arg)
}
