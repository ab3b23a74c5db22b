package timeoff

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/request"
)

const exportSheet = "Folgas"

var exportHeader = []interface{}{
	"ID", "Funcionário", "Tipo", "Início", "Fim", "Justificativa", "Atestado", "Status", "Criado em",
}

// Export writes the requests matching filter as an XLSX workbook.
func (svc *Service) Export(ctx context.Context, filter request.ListFilter, w io.Writer) error {
	reqs, err := svc.List(ctx, filter)
	if err != nil {
		return err
	}

	f, err := buildWorkbook(reqs)
	if err != nil {
		return errors.Wrap(err, "building workbook")
	}
	defer f.Close()
	return errors.Wrap(f.Write(w), "writing workbook")
}

func buildWorkbook(reqs []Request) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err = f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	if err = f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(exportSheet, "B", "B", 28)
	_ = f.SetColWidth(exportSheet, "F", "G", 40)

	for i, req := range reqs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			req.ID,
			req.UserName,
			req.Type.Label(),
			core.FormatDateBR(req.StartDate),
			core.FormatDateBR(req.EndDate),
			req.Justification.String,
			req.MedicalCertificateURL.String,
			string(req.Status),
			req.CreatedAt.UTC().Format("02/01/2006 15:04"),
		}
		if err = f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	return f, nil
}
