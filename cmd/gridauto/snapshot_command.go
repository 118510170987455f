package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gridauto/internal/simauto"
	"gridauto/internal/snapshot"
	"gridauto/internal/table"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and inspect local captures of case data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newSnapshotSaveCommand(ctx))
	cmd.AddCommand(newSnapshotListCommand(ctx))
	cmd.AddCommand(newSnapshotShowCommand(ctx))
	cmd.AddCommand(newSnapshotDeleteCommand(ctx))
	return cmd
}

func (c *commandContext) withStore(fn func(context.Context, *snapshot.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := snapshot.Open(cfg.Snapshot.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(context.Background(), store)
}

func newSnapshotSaveCommand(ctx *commandContext) *cobra.Command {
	var nameFlag string
	var fieldsFlag string

	cmd := &cobra.Command{
		Use:   "save <object-type>",
		Short: "Capture current case data into the snapshot database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			objectType := args[0]
			name := nameFlag
			if name == "" {
				name = objectType
			}

			var tbl *table.Table
			err := ctx.withSession(func(callCtx context.Context, session *simauto.Session) error {
				var sessionErr error
				if fields := splitList(fieldsFlag); len(fields) > 0 {
					tbl, sessionErr = session.GetParametersMultipleElement(callCtx, objectType, fields, "")
				} else {
					tbl, sessionErr = session.ObjectData(callCtx, objectType, "")
				}
				return sessionErr
			})
			if err != nil {
				return err
			}

			return ctx.withStore(func(storeCtx context.Context, store *snapshot.Store) error {
				id, saveErr := store.Save(storeCtx, name, objectType, tbl)
				if saveErr != nil {
					return saveErr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved snapshot %d (%s, %d rows)\n", id, name, tbl.RowCount())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&nameFlag, "name", "", "Snapshot name; defaults to the object type")
	cmd.Flags().StringVar(&fieldsFlag, "fields", "", "Comma-separated fields to capture; defaults to all")
	return cmd
}

func newSnapshotListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(storeCtx context.Context, store *snapshot.Store) error {
				snaps, err := store.List(storeCtx)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no snapshots")
					return nil
				}

				rows := make([][]string, 0, len(snaps))
				for _, s := range snaps {
					rows = append(rows, []string{
						strconv.FormatInt(s.ID, 10),
						s.Name,
						s.ObjectType,
						strconv.Itoa(s.RowCount),
						s.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					})
				}
				headers := []string{"ID", "Name", "Object Type", "Rows", "Created"}
				numeric := []bool{true, false, false, true, false}
				fmt.Fprintln(cmd.OutOrStdout(), table.RenderStrings(headers, rows, numeric))
				return nil
			})
		},
	}
}

func newSnapshotShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q", args[0])
			}
			return ctx.withStore(func(storeCtx context.Context, store *snapshot.Store) error {
				tbl, loadErr := store.Load(storeCtx, id)
				if loadErr != nil {
					return loadErr
				}
				return printTable(cmd, tbl)
			})
		},
	}
}

func newSnapshotDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid snapshot id %q", args[0])
			}
			return ctx.withStore(func(storeCtx context.Context, store *snapshot.Store) error {
				if deleteErr := store.Delete(storeCtx, id); deleteErr != nil {
					return deleteErr
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted snapshot %d\n", id)
				return nil
			})
		},
	}
}
