package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gridauto/internal/coerce"
	"gridauto/internal/simauto"
)

func newSolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "solve [method]",
		Short: "Run a power-flow solution (RECTNEWT, POLARNEWTON, GAUSSSEIDEL, FASTDEC, ROBUST, DC)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := ""
			if len(args) == 1 {
				method = args[0]
			}
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				if err := session.SolvePowerFlow(callCtx, method); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "solved")
				return nil
			})
		},
	}
}

func newScriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "script <statements>",
		Short: "Run raw script statements on the server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statements := strings.Join(args, " ")
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				payload, err := session.RunScriptCommand(callCtx, statements)
				if err != nil {
					return err
				}
				for _, raw := range payload {
					fmt.Fprintln(cmd.OutOrStdout(), coerce.Format(raw))
				}
				return nil
			})
		},
	}
}

func newHeaderCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "header [case-file]",
		Short: "Show the header of a case file; no argument means the open case",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				lines, err := session.GetCaseHeader(callCtx, path)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
				return nil
			})
		},
	}
}
