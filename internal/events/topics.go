package events

import (
	"encoding/json"

	"github.com/lembar-pintar/studio/internal/domain"
)

// SidebarOpen asks the shell to show a browse panel.
type SidebarOpen struct {
	Panel string
}

// ItemSelected is raised when a grid item is chosen.
type ItemSelected struct {
	Resource string
	Item     domain.Item
}

// DocumentChanged is raised after every canvas mutation.
type DocumentChanged struct {
	Pages int
}

// DesignSaved follows a successful save.
type DesignSaved struct {
	ID      string
	Created bool
	Message string
}

// DesignPublished follows a successful publish.
type DesignPublished struct {
	ID       string
	Document json.RawMessage
}

// Notice levels.
const (
	NoticeInfo  = "info"
	NoticeError = "error"
)

// Notice is a user-visible message.
type Notice struct {
	Level   string
	Message string
	Err     error
}

var (
	SidebarOpenTopic     = NewTopic[SidebarOpen]("sidebar.open")
	ItemSelectedTopic    = NewTopic[ItemSelected]("item.selected")
	DocumentChangeTopic  = NewTopic[DocumentChanged]("document.change")
	DesignSavedTopic     = NewTopic[DesignSaved]("design.saved")
	DesignPublishedTopic = NewTopic[DesignPublished]("design.published")
	NoticeTopic          = NewTopic[Notice]("notice")
)
