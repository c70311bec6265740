package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docman/internal/config"
	"docman/internal/models"
	"docman/internal/store"
)

type docDetailOptions struct {
	number  string
	docType string
	comment string
}

func newDocCmd(cfg *config.Config, structured *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "doc", Short: "Manage documents"}
	cmd.AddCommand(
		newDocCreateCmd(cfg, structured),
		newDocListCmd(cfg, structured),
		newDocShowCmd(cfg, structured),
		newDocUpdateCmd(cfg, structured),
		newDocDeleteCmd(cfg, structured),
	)
	return cmd
}

func newDocCreateCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &docDetailOptions{}
	cmd := &cobra.Command{
		Use:   "create <number>",
		Short: "Create a document",
		Args:  requireExactlyArgs(1, "document number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				doc, err := a.sync.CreateDocument(cmd.Context(), models.DocumentDetails{
					Number:  args[0],
					Type:    opts.docType,
					Comment: opts.comment,
				})
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(doc)
				}
				return writePlain("Created document %s\n", doc.Number)
			})
		},
	}
	cmd.Flags().StringVar(&opts.docType, "type", "", "document type")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment")
	return cmd
}

func newDocListCmd(cfg *config.Config, structured *bool) *cobra.Command {
	var (
		query store.DocumentQuery
		depth string
		tree  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseDepth(depth)
			if err != nil {
				return err
			}
			query.Depth = parsed
			return withApp(cfg, func(a *app) error {
				docs, err := a.store.ListDocuments(cmd.Context(), query)
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(docs)
				}
				if tree {
					return writeDocumentTree(cfg.DataDir, docs)
				}
				return writeDocumentList(docs)
			})
		},
	}
	cmd.Flags().StringVar(&query.Search, "search", "", "case-insensitive match on number, type or comment")
	cmd.Flags().StringVar(&query.Type, "type", "", "only documents of this type")
	cmd.Flags().IntVar(&query.Limit, "limit", 0, "maximum number of documents")
	cmd.Flags().IntVar(&query.Offset, "offset", 0, "number of documents to skip")
	cmd.Flags().StringVar(&depth, "depth", "attachments", "documents, attachments or pages")
	cmd.Flags().BoolVar(&tree, "tree", false, "render documents as a tree")
	return cmd
}

func parseDepth(raw string) (store.Depth, error) {
	switch raw {
	case "documents":
		return store.DepthDocuments, nil
	case "", "attachments":
		return store.DepthAttachments, nil
	case "pages":
		return store.DepthPages, nil
	default:
		return 0, fmt.Errorf("invalid --depth %q (documents, attachments or pages)", raw)
	}
}

func newDocShowCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number>",
		Short: "Show a document and its attachments",
		Args:  requireExactlyArgs(1, "document number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				doc, err := a.document(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(doc)
				}
				return writeDocumentDetail(*doc)
			})
		},
	}
}

func newDocUpdateCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &docDetailOptions{}
	cmd := &cobra.Command{
		Use:   "update <number>",
		Short: "Change a document's number, type or comment",
		Long:  "Renumbering a document moves its directory and renames every page file beneath it.",
		Args:  requireExactlyArgs(1, "document number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				current, err := a.store.GetDocumentByNumber(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				details := models.DocumentDetails{Number: current.Number, Type: current.Type, Comment: current.Comment}
				flags := cmd.Flags()
				if flags.Changed("number") {
					details.Number = opts.number
				}
				if flags.Changed("type") {
					details.Type = opts.docType
				}
				if flags.Changed("comment") {
					details.Comment = opts.comment
				}

				doc, err := a.sync.UpdateDocument(cmd.Context(), current.ID, details)
				if err != nil {
					return err
				}
				if *structured {
					return writeStructured(doc)
				}
				return writePlain("Updated document %s\n", doc.Number)
			})
		},
	}
	cmd.Flags().StringVar(&opts.number, "number", "", "new document number")
	cmd.Flags().StringVar(&opts.docType, "type", "", "document type")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment")
	return cmd
}

func newDocDeleteCmd(cfg *config.Config, structured *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a document, its attachments and their page files",
		Args:  requireExactlyArgs(1, "document number is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cfg, func(a *app) error {
				doc, err := a.store.GetDocumentByNumber(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := a.sync.DeleteDocument(cmd.Context(), doc.ID); err != nil {
					return err
				}
				if *structured {
					return writeStructured(map[string]any{"deleted": doc.Number})
				}
				return writePlain("Deleted document %s\n", doc.Number)
			})
		},
	}
}
