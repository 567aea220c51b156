package serverselect

import (
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog/log"

	"github.com/koinsera/botadmin/internal/cli/config"
	"github.com/koinsera/botadmin/internal/cli/userconfig"
)

// ResolveServer determines which server to use based on the following priority:
// 1. If serverAlias flag is provided, use that server (alias or URL)
// 2. If user has a selected server in their local config, use that
// 3. If only one server in project config, use that
// 4. Otherwise, prompt user to select a server interactively
func ResolveServer(projectConfig *config.Config, serverAlias string, interactive bool) (*config.Server, error) {
	// Priority 1: Use server alias if provided
	if serverAlias != "" {
		return projectConfig.GetServerByURLOrAlias(serverAlias)
	}

	// Priority 2: Use selected server from user config
	selectedURL, err := userconfig.GetSelectedServer()
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	if selectedURL != "" {
		server, err := projectConfig.GetServerByURLOrAlias(selectedURL)
		if err == nil {
			return server, nil
		}
		// Selected server no longer exists in project config, clear it and continue
		log.Debug().Str("server", selectedURL).Msg("Selected server not in project config, clearing selection")
		_ = userconfig.SetSelectedServer("")
	}

	// Priority 3: If only one server, use it automatically
	if len(projectConfig.Servers) == 1 {
		server := &projectConfig.Servers[0]
		remember(server)
		return server, nil
	}

	if !interactive {
		return nil, fmt.Errorf("multiple servers configured; pass --server or run 'botadmin select-server'")
	}

	// Priority 4: Prompt user to select a server
	server, err := PromptServerSelection(projectConfig, nil, nil)
	if err != nil {
		return nil, err
	}
	remember(server)
	return server, nil
}

// remember saves the selection; failure only costs a prompt next time
func remember(server *config.Server) {
	if err := userconfig.SetSelectedServer(server.URL); err != nil {
		log.Warn().Err(err).Msg("Failed to save selected server")
	}
}

// PromptServerSelection shows an interactive prompt for the user to select a
// server. Nil stdin/stdout use the terminal.
func PromptServerSelection(projectConfig *config.Config, stdin io.ReadCloser, stdout io.WriteCloser) (*config.Server, error) {
	if len(projectConfig.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", config.ConfigFileName)
	}

	// Create display labels for each server
	type serverOption struct {
		Label  string
		Server *config.Server
	}

	options := make([]serverOption, len(projectConfig.Servers))
	for i := range projectConfig.Servers {
		server := &projectConfig.Servers[i]
		options[i] = serverOption{
			Label:  server.Label(),
			Server: server,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a server",
		Items:     options,
		Templates: templates,
		Size:      10,
		Stdin:     stdin,
		Stdout:    stdout,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server selection cancelled: %w", err)
	}

	return options[index].Server, nil
}
