package mcp

import (
	"github.com/felixgeelhaar/arrange-go/application"
	"github.com/felixgeelhaar/arrange-go/domain/session"
)

type elementView struct {
	Position      int    `json:"position"`
	OriginalIndex int    `json:"original_index"`
	Rotation      int    `json:"rotation,omitempty"`
	Name          string `json:"name,omitempty"`
	Selected      bool   `json:"selected,omitempty"`
}

type sessionView struct {
	SessionID string           `json:"session_id"`
	Document  session.Document `json:"document"`
	State     session.State    `json:"state"`
	Dirty     bool             `json:"dirty"`
	Selected  []int            `json:"selected"`
	Order     []elementView    `json:"order"`
}

type commitView struct {
	OutputID  string `json:"output_id"`
	OutputURL string `json:"output_url,omitempty"`
	RecordID  string `json:"record_id"`
	Order     []int  `json:"order"`
}

func viewOf(s *application.Session) sessionView {
	selected := s.Selected()
	isSelected := make(map[int]bool, len(selected))
	for _, idx := range selected {
		isSelected[idx] = true
	}

	order := s.VisibleOrder()
	elements := make([]elementView, len(order))
	for i, e := range order {
		ev := elementView{
			Position:      i + 1,
			OriginalIndex: e.OriginalIndex,
			Rotation:      e.Rotation,
			Selected:      isSelected[e.OriginalIndex],
		}
		if info, ok := s.Info(e.OriginalIndex); ok {
			ev.Name = info.Name
		}
		elements[i] = ev
	}

	return sessionView{
		SessionID: s.ID(),
		Document:  s.Document(),
		State:     s.State(),
		Dirty:     s.Dirty(),
		Selected:  selected,
		Order:     elements,
	}
}
