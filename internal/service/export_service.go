package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/internal/hierarchy"
	"github.com/noah-isme/lms-content-api/internal/models"
	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
	"github.com/noah-isme/lms-content-api/pkg/export"
)

// OutlineFormat is a supported outline download format.
type OutlineFormat string

const (
	OutlineFormatCSV OutlineFormat = "csv"
	OutlineFormatPDF OutlineFormat = "pdf"
)

var outlineHeaders = []string{"Title", "Kind", "Level", "Depth", "Featured", "Children", "Path", "ID"}

type outlineSource interface {
	Outline(ctx context.Context, collectionID string) (*models.Collection, []hierarchy.FlatNode, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// OutlineFile is a rendered outline ready to stream.
type OutlineFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders collection outlines.
type ExportService struct {
	source outlineSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(source outlineSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{source: source, csv: csv, pdf: pdf, logger: logger}
}

// Outline renders the full tree of a collection in the requested format.
func (s *ExportService) Outline(ctx context.Context, collectionID string, format OutlineFormat) (*OutlineFile, error) {
	if format != OutlineFormatCSV && format != OutlineFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	collection, rows, err := s.source.Outline(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	dataset := buildOutlineDataset(rows)
	var payload []byte
	var contentType string
	switch format {
	case OutlineFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case OutlineFormatPDF:
		payload, err = s.pdf.Render(dataset, collection.Name)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render outline")
	}

	s.logger.Debug("outline rendered",
		zap.String("collection_id", collection.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(payload)),
	)
	return &OutlineFile{
		Filename:    fmt.Sprintf("%s_outline.%s", sanitizeFilename(collection.Name), format),
		ContentType: contentType,
		Data:        payload,
	}, nil
}

func buildOutlineDataset(rows []hierarchy.FlatNode) export.Dataset {
	dataset := export.Dataset{
		Headers: outlineHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
		Depth:   make([]int, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":    row.Title,
			"Kind":     string(row.Kind),
			"Level":    strconv.Itoa(row.Level),
			"Depth":    strconv.Itoa(row.Depth),
			"Featured": strconv.FormatBool(row.Featured),
			"Children": strconv.Itoa(row.ChildCount),
			"Path":     strings.Join(row.Path, " / "),
			"ID":       row.ID,
		})
		dataset.Depth = append(dataset.Depth, row.Depth)
	}
	return dataset
}

func sanitizeFilename(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "collection"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := strings.ToLower(replacer.Replace(strings.TrimSpace(raw)))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
