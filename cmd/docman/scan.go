package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docman/internal/config"
	"docman/internal/models"
	"docman/internal/scan"
	"docman/internal/synchronizer"
)

type scanOptions struct {
	output  string
	comment string
	append  bool
}

func newScanCmd(cfg *config.Config, structured *bool) *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [<document> <reference>]",
		Short: "Acquire one page from the scanner",
		Long: "Scans one page and adds it to a new attachment, or to an existing one with --append.\n" +
			"With --output the image is only saved to a file.",
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.output != "" && len(args) == 0 {
				return nil
			}
			return requireExactlyArgs(2, "document number and reference number are required")(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			acquirer := scan.NewCommandAcquirer(cfg.Scan.Command, cfg.ScanTimeout(), logger())
			progress := io.Writer(os.Stderr)
			if *structured {
				progress = io.Discard
			}
			data, err := runScan(cmd.Context(), acquirer, cfg.ScanTickInterval(), progress)
			if err != nil {
				return err
			}

			if opts.output != "" {
				if err := os.WriteFile(opts.output, data, 0o644); err != nil {
					return err
				}
				if *structured {
					return writeStructured(map[string]any{"path": opts.output, "bytes": len(data)})
				}
				return writePlain("Saved scan to %s\n", opts.output)
			}

			return withApp(cfg, func(a *app) error {
				return storeScan(cmd.Context(), a, args[0], args[1], opts, *structured, data)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "save the scanned image to a file instead")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "comment for a new attachment")
	cmd.Flags().BoolVar(&opts.append, "append", false, "append the page to an existing attachment")
	return cmd
}

// runScan waits for one scan job and draws its liveness bar on w.
func runScan(ctx context.Context, acquirer scan.Acquirer, interval time.Duration, w io.Writer) ([]byte, error) {
	if interval <= 0 {
		interval = scan.DefaultTickInterval
	}
	job := scan.Start(ctx, acquirer, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-job.Events():
			fmt.Fprint(w, "\r\033[K")
			if !ev.Succeeded() {
				return nil, fmt.Errorf("scan failed: %w", ev.Err)
			}
			return ev.Data, nil
		case <-ticker.C:
			fmt.Fprintf(w, "\rscanning %s", progressBar(job.Progress(), 20))
		}
	}
}

func progressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func storeScan(ctx context.Context, a *app, documentNumber, reference string, opts *scanOptions, structured bool, data []byte) error {
	ingested, err := a.sync.Ingest(ctx, []synchronizer.Source{{Name: "scan", Data: data}})
	if err != nil {
		return err
	}
	writeIngestFaults(ingested.Faults)

	doc, err := a.store.GetDocumentByNumber(ctx, documentNumber)
	if err != nil {
		return err
	}

	if opts.append {
		attachment, err := a.store.GetAttachmentByReference(ctx, reference)
		if err != nil {
			return err
		}
		if attachment.DocumentID != doc.ID {
			return &models.ValidationError{Message: fmt.Sprintf("attachment %s does not belong to document %s", reference, doc.Number)}
		}
		session, err := a.sync.Open(ctx, attachment.ID)
		if err != nil {
			return err
		}
		if err := session.AppendPages(ctx, ingested.Pages); err != nil {
			return err
		}
		updated, err := a.sync.Commit(ctx, session)
		if err != nil {
			return err
		}
		return writeAttachmentResult(structured, "Updated", *doc, *updated)
	}

	attachment, err := a.sync.CreateAttachment(ctx, doc.ID, models.AttachmentDetails{
		ReferenceNumber: reference,
		Comment:         opts.comment,
	}, ingested.Pages)
	if err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return fmt.Errorf("%w (use --append to add the page to it)", err)
		}
		return err
	}
	return writeAttachmentResult(structured, "Created", *doc, *attachment)
}
