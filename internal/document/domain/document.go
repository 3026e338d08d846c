package domain

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

const ContentTypePDF = "application/pdf"

// Source tells where a retrieved document came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceArtifact Source = "artifact"
	SourceRender   Source = "render"
)

// Document is the rendered SPK for one revision of a work order.
type Document struct {
	WorkOrderID snowflake.ID
	Revision    int64
	FileName    string
	ContentType string
	Locator     string
	Source      Source
	Data        []byte
}

// RenderError is a failure to produce the document. It is distinct from the
// work order being absent.
type RenderError struct {
	WorkOrderID snowflake.ID
	Err         error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render document for work order %s: %v", e.WorkOrderID, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

type Service interface {
	// Retrieve returns the document for the work order's current revision.
	Retrieve(ctx context.Context, workOrderID string) (Document, error)
	// Invalidate drops the persisted and memoized document.
	Invalidate(ctx context.Context, workOrderID string) error
}
