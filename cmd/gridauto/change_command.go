package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gridauto/internal/simauto"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	var fieldsFlag string
	var valuesFlag string
	var noVerify bool

	cmd := &cobra.Command{
		Use:   "set <object-type>",
		Short: "Change field values for one object, verifying the write by default",
		Long: `Change field values for one object. The field list must include the
object type's key fields so the server can identify the target. After a
verified write the values are read back and compared; fields configured
as verify-skip in [verify.skip_fields] are written but not compared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := splitList(fieldsFlag)
			values := splitList(valuesFlag)
			if len(fields) == 0 {
				return errors.New("--fields is required")
			}
			if len(fields) != len(values) {
				return fmt.Errorf("%d fields but %d values", len(fields), len(values))
			}

			row := make([]any, len(values))
			for i, v := range values {
				row[i] = v
			}

			return ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				if noVerify {
					if err := session.ChangeParametersSingleElement(callCtx, args[0], fields, row); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "changed (unverified)")
					return nil
				}

				err := session.ChangeAndConfirm(callCtx, args[0], fields, [][]any{row})
				var verifyErr *simauto.VerificationError
				if errors.As(err, &verifyErr) {
					fmt.Fprintln(cmd.ErrOrStderr(), "write applied but verification failed:")
					for _, m := range verifyErr.Mismatches {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", m.String())
					}
					return err
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "changed and verified")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fieldsFlag, "fields", "", "Comma-separated field names, including the key fields")
	cmd.Flags().StringVar(&valuesFlag, "values", "", "Comma-separated values matching --fields")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the read-back verification")
	return cmd
}
