package processing

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/arrange-go/domain/session"
	"github.com/felixgeelhaar/arrange-go/domain/structure"
)

// codec translates between domain values and one kind's wire format.
type codec interface {
	decodeStructure(body []byte, ep Endpoints) (int, []structure.ElementInfo, error)
	encodeOrganize(req structure.OrganizeRequest, ep Endpoints) any
}

func codecFor(kind session.Kind) (codec, error) {
	switch kind {
	case session.KindPDF:
		return pdfCodec{}, nil
	case session.KindDOCX:
		return docxCodec{}, nil
	case session.KindXLSX:
		return xlsxCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", session.ErrUnknownKind, kind)
	}
}

type pdfPage struct {
	Index    int     `json:"index"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}

type pdfPagesResponse struct {
	TotalPages int       `json:"total_pages"`
	Pages      []pdfPage `json:"pages"`
}

type pdfPageConfig struct {
	OriginalPageNumber int `json:"original_page_number"`
	Rotate             int `json:"rotate"`
}

type pdfOrganizeRequest struct {
	FileID     string          `json:"file_id"`
	PageConfig []pdfPageConfig `json:"page_config"`
}

type pdfCodec struct{}

func (pdfCodec) decodeStructure(body []byte, ep Endpoints) (int, []structure.ElementInfo, error) {
	var resp pdfPagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", structure.ErrInvalidStructure, err)
	}
	infos := make([]structure.ElementInfo, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		infos = append(infos, structure.ElementInfo{
			Index:    ep.fromWire(p.Index),
			Width:    p.Width,
			Height:   p.Height,
			Rotation: p.Rotation,
		})
	}
	return resp.TotalPages, infos, nil
}

// encodeOrganize always sends 1-based page numbers; the organize
// endpoint ignores the structure endpoint's index base.
func (pdfCodec) encodeOrganize(req structure.OrganizeRequest, _ Endpoints) any {
	out := pdfOrganizeRequest{
		FileID:     req.Document.Ref,
		PageConfig: make([]pdfPageConfig, 0, len(req.Entries)),
	}
	for _, e := range req.Entries {
		out.PageConfig = append(out.PageConfig, pdfPageConfig{
			OriginalPageNumber: e.OriginalIndexReference,
			Rotate:             e.Rotation(),
		})
	}
	return out
}

type docxPage struct {
	Index int `json:"index"`
}

type docxPagesResponse struct {
	TotalPages int        `json:"total_pages"`
	Pages      []docxPage `json:"pages"`
}

type docxReorderRequest struct {
	FileID    string `json:"file_id"`
	PageOrder []int  `json:"page_order"`
}

type docxCodec struct{}

func (docxCodec) decodeStructure(body []byte, ep Endpoints) (int, []structure.ElementInfo, error) {
	var resp docxPagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", structure.ErrInvalidStructure, err)
	}
	infos := make([]structure.ElementInfo, 0, len(resp.Pages))
	for _, p := range resp.Pages {
		infos = append(infos, structure.ElementInfo{Index: ep.fromWire(p.Index)})
	}
	return resp.TotalPages, infos, nil
}

func (docxCodec) encodeOrganize(req structure.OrganizeRequest, ep Endpoints) any {
	return docxReorderRequest{
		FileID:    req.Document.Ref,
		PageOrder: wireOrder(req, ep),
	}
}

type xlsxSheet struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

type xlsxSheetsResponse struct {
	TotalSheets int         `json:"total_sheets"`
	Sheets      []xlsxSheet `json:"sheets"`
}

type xlsxReorderRequest struct {
	FileID     string `json:"file_id"`
	SheetOrder []int  `json:"sheet_order"`
}

type xlsxCodec struct{}

func (xlsxCodec) decodeStructure(body []byte, ep Endpoints) (int, []structure.ElementInfo, error) {
	var resp xlsxSheetsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", structure.ErrInvalidStructure, err)
	}
	infos := make([]structure.ElementInfo, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		infos = append(infos, structure.ElementInfo{
			Index:   ep.fromWire(s.Index),
			Name:    s.Name,
			Rows:    s.Rows,
			Columns: s.Columns,
		})
	}
	return resp.TotalSheets, infos, nil
}

func (xlsxCodec) encodeOrganize(req structure.OrganizeRequest, ep Endpoints) any {
	return xlsxReorderRequest{
		FileID:     req.Document.Ref,
		SheetOrder: wireOrder(req, ep),
	}
}

func wireOrder(req structure.OrganizeRequest, ep Endpoints) []int {
	order := make([]int, len(req.Entries))
	for i, e := range req.Entries {
		order[i] = ep.toWire(e.OriginalIndexReference)
	}
	return order
}

type outputResponse struct {
	ID  json.RawMessage `json:"id"`
	URL string          `json:"url"`
}

// decodeOutput accepts string and numeric document IDs.
func decodeOutput(body []byte) (structure.Output, error) {
	var resp outputResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return structure.Output{}, fmt.Errorf("decode organize response: %w", err)
	}
	var id string
	if err := json.Unmarshal(resp.ID, &id); err != nil {
		id = string(resp.ID)
	}
	if id == "" || id == "null" {
		return structure.Output{}, fmt.Errorf("decode organize response: missing id")
	}
	return structure.Output{ID: id, URL: resp.URL}, nil
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// decodeServiceError builds a ServiceError from a non-2xx response.
func decodeServiceError(status int, body []byte) *structure.ServiceError {
	var resp errorResponse
	msg := ""
	if err := json.Unmarshal(body, &resp); err == nil {
		msg = resp.Error
		if msg == "" {
			msg = resp.Detail
		}
	}
	if msg == "" && len(body) > 0 && body[0] != '{' {
		msg = string(body)
	}
	return &structure.ServiceError{Status: status, Message: msg}
}
