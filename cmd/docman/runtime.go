package main

import (
	"context"
	"fmt"

	"docman/internal/codec"
	"docman/internal/config"
	"docman/internal/models"
	"docman/internal/pagepath"
	"docman/internal/pdfexport"
	"docman/internal/store"
	"docman/internal/synchronizer"
)

// app is the per-invocation wiring of store and synchronizer.
type app struct {
	store *store.Store
	sync  *synchronizer.Synchronizer
}

func withApp(cfg *config.Config, fn func(*app) error) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer st.Close()

	log := logger()
	sync, err := synchronizer.New(synchronizer.Deps{
		Store: st,
		Codec: codec.NewAdapter(codec.FitzRasterizer{Logger: log}, codec.Resolution{
			Width:  cfg.Codec.RasterWidth,
			Height: cfg.Codec.RasterHeight,
		}),
		Paths:    pagepath.New(cfg.DataDir),
		Exporter: pdfexport.New(float64(cfg.Export.DPI), log),
		Logger:   log,
	})
	if err != nil {
		return err
	}
	return fn(&app{store: st, sync: sync})
}

func (a *app) document(ctx context.Context, number string) (*models.Document, error) {
	doc, err := a.store.GetDocumentByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	attachments, err := a.store.ListAttachments(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.Attachments = attachments
	return doc, nil
}

func (a *app) attachment(ctx context.Context, reference string) (*models.Attachment, *models.Document, error) {
	attachment, err := a.store.GetAttachmentByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}
	doc, err := a.store.GetDocument(ctx, attachment.DocumentID)
	if err != nil {
		return nil, nil, err
	}
	return attachment, doc, nil
}
