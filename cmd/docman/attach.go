package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docman/internal/config"
	"docman/internal/models"
	"docman/internal/synchronizer"
)

type attachEditOptions struct {
	reference string
	comment   string
	append    bool
}

func newAttachCmd(cfg *config.Config, structured *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "attach", Short: "Manage attachments and their pages"}
	cmd.AddCommand(
		newAttachCreateCmd(cfg, structured),
		newAttachShowCmd(cfg, structured),
		newAttachUpdateCmd(cfg, structured),
		newAttachReplaceCmd(cfg, structured),
		newAttachDeleteCmd(cfg, structured),
		newAttachExportCmd(cfg, structured),
	)
	return cmd
}

func newAttachCreateCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &attachEditOptions{}
	cmd := &cobra.Command{
		Use:   "create <document> <reference> <file>...",
		Short: "Create an attachment from image or PDF files",
		Long:  "Files are merged in the order given; every PDF contributes all of its pages in place.",
		Args:  requireAtLeastArgs(3, "document number, reference number and at least one file are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				ctx := cmd.Context()
				doc, err := a.store.GetDocumentByNumber(ctx, args[0])
				if err != nil {
					return err
				}
				ingested, err := a.sync.IngestFiles(ctx, args[2:])
				if err != nil {
					return err
				}
				writeIngestFaults(ingested.Faults)

				attachment, err := a.sync.CreateAttachment(ctx, doc.ID, models.AttachmentDetails{
					ReferenceNumber: args[1],
					Comment:         opts.comment,
				}, ingested.Pages)
				if err != nil {
					return err
				}
				return writeAttachmentResult(*structured, "Created", *doc, *attachment)
			})
		},
	}
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment")
	return cmd
}

func newAttachShowCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <reference>",
		Short: "Show an attachment and check its page files",
		Args:  requireExactlyArgs(1, "reference number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				attachment, doc, err := a.attachment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				loaded, err := a.sync.LoadPages(cmd.Context(), attachment.ID)
				if err != nil {
					return err
				}
				view := newAttachmentView(*doc, *attachment, loaded)
				if *structured {
					return writeStructured(view)
				}
				return writeAttachmentDetail(view)
			})
		},
	}
}

func newAttachUpdateCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &attachEditOptions{}
	cmd := &cobra.Command{
		Use:   "update <reference>",
		Short: "Change an attachment's reference number or comment",
		Long:  "Page files are renamed in place; their bytes are not rewritten.",
		Args:  requireExactlyArgs(1, "reference number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				return editAttachment(cmd, a, args[0], opts, *structured, nil)
			})
		},
	}
	cmd.Flags().StringVar(&opts.reference, "reference", "", "new reference number")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment")
	return cmd
}

func newAttachReplaceCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &attachEditOptions{}
	cmd := &cobra.Command{
		Use:   "replace <reference> <file>...",
		Short: "Replace or extend an attachment's pages",
		Args:  requireAtLeastArgs(2, "reference number and at least one file are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				ingested, err := a.sync.IngestFiles(cmd.Context(), args[1:])
				if err != nil {
					return err
				}
				writeIngestFaults(ingested.Faults)
				return editAttachment(cmd, a, args[0], opts, *structured, ingested.Pages)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.append, "append", false, "add pages after the existing ones")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "new reference number")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment")
	return cmd
}

// editAttachment runs one edit session: detail flags first, then pages.
func editAttachment(cmd *cobra.Command, a *app, reference string, opts *attachEditOptions, structured bool, pages [][]byte) error {
	ctx := cmd.Context()
	attachment, doc, err := a.attachment(ctx, reference)
	if err != nil {
		return err
	}
	session, err := a.sync.Open(ctx, attachment.ID)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("reference") || flags.Changed("comment") {
		details := session.Details()
		if flags.Changed("reference") {
			details.ReferenceNumber = opts.reference
		}
		if flags.Changed("comment") {
			details.Comment = opts.comment
		}
		session.SetDetails(details)
	}
	if pages != nil {
		if err := stagePages(ctx, session, pages, opts.append); err != nil {
			return err
		}
	}

	if session.Mode() == models.EditViewing {
		return writeAttachmentResult(structured, "Unchanged", *doc, *attachment)
	}
	updated, err := a.sync.Commit(ctx, session)
	if err != nil {
		return err
	}
	return writeAttachmentResult(structured, "Updated", *doc, *updated)
}

func stagePages(ctx context.Context, session *synchronizer.EditSession, pages [][]byte, appendPages bool) error {
	if appendPages {
		return session.AppendPages(ctx, pages)
	}
	session.ReplacePages(pages)
	return nil
}

func newAttachDeleteCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <reference>",
		Short: "Delete an attachment and its page files",
		Args:  requireExactlyArgs(1, "reference number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				attachment, err := a.store.GetAttachmentByReference(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.sync.DeleteAttachment(cmd.Context(), attachment.ID); err != nil {
					return err
				}
				if *structured {
					return writeStructured(map[string]any{"deleted": attachment.ReferenceNumber})
				}
				return writePlain("Deleted attachment %s\n", attachment.ReferenceNumber)
			})
		},
	}
}

func newAttachExportCmd(cfg *config.Config, structured *bool) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <reference>",
		Short: "Export an attachment's pages as one A4 PDF",
		Args:  requireExactlyArgs(1, "reference number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				attachment, doc, err := a.attachment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				outPath := output
				if outPath == "" {
					outPath = defaultExportName(doc.Number, attachment.ReferenceNumber)
				}
				if err := a.sync.ExportPDF(cmd.Context(), attachment.ID, outPath); err != nil {
					return err
				}
				if *structured {
					return writeStructured(map[string]any{"path": outPath, "pages": len(attachment.Pages)})
				}
				return writePlain("Exported %d page%s to %s\n", len(attachment.Pages), plural(len(attachment.Pages)), outPath)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <document>_<reference>.pdf)")
	return cmd
}

func defaultExportName(documentNumber, referenceNumber string) string {
	name := fmt.Sprintf("%s_%s.pdf", documentNumber, referenceNumber)
	if cwd, err := os.Getwd(); err == nil {
		return filepath.Join(cwd, name)
	}
	return name
}

func writeAttachmentResult(structured bool, verb string, doc models.Document, attachment models.Attachment) error {
	if structured {
		return writeStructured(attachment)
	}
	return writePlain("%s attachment %s on %s (%d page%s)\n", verb, attachment.ReferenceNumber, doc.Number,
		len(attachment.Pages), plural(len(attachment.Pages)))
}
