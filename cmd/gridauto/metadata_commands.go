package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gridauto/internal/simauto"
	"gridauto/internal/table"
)

func newFieldsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fields <object-type>",
		Short: "List every field of an object type with its declared type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				cat, err := session.Catalog(callCtx, args[0])
				if err != nil {
					return err
				}

				keySet := make(map[string]struct{}, len(cat.Keys))
				for _, k := range cat.Keys {
					keySet[strings.ToLower(k)] = struct{}{}
				}

				rows := make([][]string, 0, len(cat.Fields))
				for _, f := range cat.Fields {
					key := ""
					if _, isKey := keySet[strings.ToLower(f.Name)]; isKey {
						key = "yes"
					}
					rows = append(rows, []string{f.Name, string(f.Type), key, f.Display, f.Description})
				}

				headers := []string{"Field", "Type", "Key", "Display", "Description"}
				fmt.Fprintln(cmd.OutOrStdout(), table.RenderStrings(headers, rows, nil))
				return nil
			})
		},
	}
}

func newKeysCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keys <object-type>",
		Short: "Show the key fields that identify an object of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				keys, err := session.KeyFields(callCtx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keys, "\n"))
				return nil
			})
		},
	}
}
