package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thomasdesr/mwspay/params"
)

func (a *app) callCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "call ACTION [Key=Value ...]",
		Short: "Sign and send one MWS action",
		Long: `Sign and send one MWS action on behalf of the configured merchant.

Parameters are given as Key=Value with dotted keys for nested values, e.g.
  mwspay call GetOrderReferenceDetails AmazonOrderReferenceId=S01-0000000-0000000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}

			call := client.NewTree()
			for _, k := range tree.Keys() {
				v, _ := tree.Get(k)
				call.Set(k, v)
			}

			resp, err := client.Call(cmd.Context(), args[0], call)
			if err != nil {
				return err
			}

			if !raw {
				fmt.Fprintf(cmd.ErrOrStderr(), "status %d, request id %s\n", resp.StatusCode(), resp.RequestID())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", resp.Body())

			if !resp.Success() {
				return fmt.Errorf("%s failed with status %d", args[0], resp.StatusCode())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print only the response body")

	return cmd
}

// parseAssignments turns Key=Value arguments into a Tree. Keys are kept as
// given, so a dotted key flattens to itself.
func parseAssignments(args []string) (*params.Tree, error) {
	tree := params.NewTree()
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("parameter %q is not Key=Value", arg)
		}
		if tree.Has(k) {
			return nil, fmt.Errorf("parameter %q given twice", k)
		}
		tree.SetString(k, v)
	}
	return tree, nil
}
