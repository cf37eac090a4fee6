// Package mode defines the services and messages shared by the upload
// and chat views.
package mode

import (
	"github.com/zjrosen/vidbrain/internal/agent"
	"github.com/zjrosen/vidbrain/internal/config"
	"github.com/zjrosen/vidbrain/internal/mode/shared"
	"github.com/zjrosen/vidbrain/internal/registry"
	"github.com/zjrosen/vidbrain/internal/ui/toaster"
	"github.com/zjrosen/vidbrain/internal/upload"
)

// Services contains shared dependencies injected into the views.
type Services struct {
	Registry   *registry.Registry
	Uploads    *upload.Controller
	Agent      agent.Service
	Config     *config.Config
	ConfigPath string
	Clipboard  shared.Clipboard
	Clock      shared.Clock
}

// BaseURL returns the service base URL used for media links.
func (s Services) BaseURL() string {
	if s.Config == nil {
		return agent.DefaultBaseURL
	}
	return s.Config.Server.BaseURL
}

// ShowToastMsg asks the app to show a toast.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}
