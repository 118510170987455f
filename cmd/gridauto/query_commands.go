package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"gridauto/internal/simauto"
	"gridauto/internal/table"
)

func newDevicesCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "devices <object-type>",
		Short: "List every object of a type by its key fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				tbl, err := session.ListOfDevices(callCtx, args[0], filterFlag)
				if err != nil {
					return err
				}
				return printTable(cmd, tbl)
			})
		},
	}
	cmd.Flags().StringVar(&filterFlag, "filter", "", "Advanced filter defined in the case")
	return cmd
}

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var filterFlag string

	cmd := &cobra.Command{
		Use:   "query <object-type> [field...]",
		Short: "Fetch fields for every object of a type; no fields means all",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				var tbl *table.Table
				var err error
				if len(args) == 1 {
					tbl, err = session.ObjectData(callCtx, args[0], filterFlag)
				} else {
					tbl, err = session.GetParametersMultipleElement(callCtx, args[0], args[1:], filterFlag)
				}
				if err != nil {
					return err
				}
				return printTable(cmd, tbl)
			})
		},
	}
	cmd.Flags().StringVar(&filterFlag, "filter", "", "Advanced filter defined in the case")
	return cmd
}

func newPowerFlowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "powerflow <object-type>",
		Short: "Show power-flow result fields for bus, gen, load, shunt, or branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				tbl, err := session.PowerFlowResults(callCtx, args[0])
				if err != nil {
					return err
				}
				return printTable(cmd, tbl)
			})
		},
	}
}

func printTable(cmd *cobra.Command, tbl *table.Table) error {
	if tbl.Empty() {
		fmt.Fprintln(cmd.OutOrStdout(), "no objects")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
	return nil
}
