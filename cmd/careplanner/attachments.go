package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/careplanner/internal/attachments"
	"github.com/dharsanguruparan/careplanner/internal/config"
	"github.com/dharsanguruparan/careplanner/internal/model"
)

func newAttachmentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachments",
		Aliases: []string{"att"},
		Short:   "List, upload and sign attachments",
	}
	cmd.AddCommand(
		newAttachmentsListCmd(c),
		newAttachmentsUploadCmd(c),
		newAttachmentsURLCmd(c),
	)
	return cmd
}

type ownerFlags struct {
	kind string
	id   string
}

func (f *ownerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.kind, "kind", "", "Owner kind (service_user, staff, shift, daily_note, mar_record, resident_medication)")
	cmd.Flags().StringVar(&f.id, "id", "", "Owner id")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
}

func (f *ownerFlags) owner() (model.Owner, error) {
	return model.ParseOwner(f.kind, f.id)
}

func newAttachmentsListCmd(c *cli) *cobra.Command {
	var flags ownerFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's attachments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := flags.owner()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := c.build(ctx, c.cfg, c.log, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			panel := attachments.NewPanel(a.svc)
			if err := panel.SetOwner(ctx, owner); err != nil {
				return err
			}
			rows := panel.Rows()
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No documents uploaded yet.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TITLE\tSIZE\tTYPE\tCREATED\tID")
			for _, rec := range rows {
				fileType := "unknown"
				if rec.FileType != nil {
					fileType = *rec.FileType
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					rec.DisplayTitle(),
					model.FormatKB(rec.FileSize),
					fileType,
					rec.CreatedAt.Local().Format(time.DateTime),
					rec.ID,
				)
			}
			return tw.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}

func newAttachmentsUploadCmd(c *cli) *cobra.Command {
	var flags ownerFlags
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a file and attach it to an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := flags.owner()
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", args[0])
			}

			ctx := cmd.Context()
			a, err := c.build(ctx, c.cfg, c.log, buildOptions{enqueue: c.cfg.StorageBackend != config.BackendMemory})
			if err != nil {
				return err
			}
			defer a.Close()

			panel := attachments.NewPanel(a.svc)
			if err := panel.SetOwner(ctx, owner); err != nil {
				return err
			}
			name := filepath.Base(args[0])
			panel.Select(&attachments.File{
				Name:        name,
				ContentType: mime.TypeByExtension(filepath.Ext(name)),
				Size:        info.Size(),
				Body:        f,
			})
			rec, err := panel.Upload(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s %s/%s\n", rec.ID, rec.Bucket, rec.Path)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newAttachmentsURLCmd(c *cli) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print a short-lived download link for an attachment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return errors.New("--id is required")
			}
			ctx := cmd.Context()
			a, err := c.build(ctx, c.cfg, c.log, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.svc.Get(ctx, id)
			if err != nil {
				return err
			}
			panel := attachments.NewPanel(a.svc)
			u, err := panel.Download(ctx, *rec)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Attachment id")
	return cmd
}
