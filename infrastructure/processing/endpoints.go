package processing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/arrange-go/domain/config"
	"github.com/felixgeelhaar/arrange-go/domain/session"
)

// Endpoints locates the structure and organize operations for one kind.
type Endpoints struct {
	// Structure is the metadata path; {id} is replaced by the file ID.
	Structure string

	// Organize is the commit path.
	Organize string

	// IndexBase is the first element index on the wire, 0 or 1.
	IndexBase int
}

// DefaultEndpoints returns the service paths for a document kind.
func DefaultEndpoints(kind session.Kind) Endpoints {
	switch kind {
	case session.KindPDF:
		return Endpoints{
			Structure: "/api/v1/tools/pdf/pages/{id}/",
			Organize:  "/api/v1/tools/pdf/organize/",
			IndexBase: 0,
		}
	case session.KindDOCX:
		return Endpoints{
			Structure: "/api/v1/tools/docx/{id}/pages/",
			Organize:  "/api/v1/tools/docx/reorder/",
			IndexBase: 0,
		}
	case session.KindXLSX:
		return Endpoints{
			Structure: "/api/v1/tools/xlsx/{id}/sheets/",
			Organize:  "/api/v1/tools/xlsx/reorder/",
			IndexBase: 0,
		}
	default:
		return Endpoints{}
	}
}

// EndpointsFromConfig overlays configured paths on the defaults.
func EndpointsFromConfig(cfg map[string]config.EndpointSet) map[session.Kind]Endpoints {
	out := make(map[session.Kind]Endpoints, 3)
	for _, kind := range []session.Kind{session.KindPDF, session.KindDOCX, session.KindXLSX} {
		ep := DefaultEndpoints(kind)
		if set, ok := cfg[string(kind)]; ok {
			if set.Structure != "" {
				ep.Structure = set.Structure
			}
			if set.Organize != "" {
				ep.Organize = set.Organize
			}
			if set.IndexBase != nil {
				ep.IndexBase = *set.IndexBase
			}
		}
		out[kind] = ep
	}
	return out
}

func (e Endpoints) structureURL(base, ref string) (string, error) {
	if e.Structure == "" {
		return "", fmt.Errorf("no structure endpoint configured")
	}
	return joinURL(base, strings.ReplaceAll(e.Structure, "{id}", url.PathEscape(ref)))
}

func (e Endpoints) organizeURL(base string) (string, error) {
	if e.Organize == "" {
		return "", fmt.Errorf("no organize endpoint configured")
	}
	return joinURL(base, e.Organize)
}

// toWire converts a 1-based original index to the service's index base.
func (e Endpoints) toWire(originalIndex int) int {
	return originalIndex - 1 + e.IndexBase
}

// fromWire converts a service index to a 1-based original index.
func (e Endpoints) fromWire(index int) int {
	return index + 1 - e.IndexBase
}

func joinURL(base, path string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return u.JoinPath(path).String(), nil
}
