package ui

import (
	"context"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fragmede/sanctum/internal/cache"
	"github.com/fragmede/sanctum/internal/config"
	"github.com/fragmede/sanctum/internal/events"
	"github.com/fragmede/sanctum/internal/render"
	"github.com/fragmede/sanctum/internal/sanctum"
	"github.com/fragmede/sanctum/internal/session"
	"github.com/fragmede/sanctum/internal/store"
	"github.com/fragmede/sanctum/internal/ui/activity"
	"github.com/fragmede/sanctum/internal/ui/login"
	"github.com/fragmede/sanctum/internal/ui/messages"
	"github.com/fragmede/sanctum/internal/ui/profile"
	"github.com/fragmede/sanctum/internal/ui/statusbar"
)

// ViewType identifies the active view.
type ViewType int

const (
	ViewProfile ViewType = iota
	ViewLogin
	ViewActivity
)

// App is the root Bubble Tea model.
type App struct {
	// View state
	activeView    ViewType
	previousViews []ViewType

	// Child models
	profile   profile.Model
	loginForm login.Model
	activity  activity.Model
	statusBar statusbar.Model

	// Shared state
	cfg     config.Config
	sanctum *sanctum.Sanctum
	cache   *cache.DB
	host    string
	banner  string

	// Dimensions
	width  int
	height int
}

// NewApp creates the root application model.
func NewApp(cfg config.Config, s *sanctum.Sanctum, db *cache.DB) *App {
	host := cfg.ParsedBaseURL().Host
	bar := statusbar.New(host)
	bar.SetEventCount(db.EventCount())

	return &App{
		activeView: ViewProfile,
		profile:    profile.New(s.Actions),
		activity:   activity.New(db),
		statusBar:  bar,
		cfg:        cfg,
		sanctum:    s,
		cache:      db,
		host:       host,
	}
}

// Init starts the application.
func (a *App) Init() tea.Cmd {
	return a.tryRestoreSession()
}

func (a *App) tryRestoreSession() tea.Cmd {
	s := a.sanctum
	return func() tea.Msg {
		u, err := s.RestoreSession(context.Background())
		return messages.SessionRestoredMsg{User: u, Err: err}
	}
}

func (a *App) logout() tea.Cmd {
	actions := a.sanctum.Actions
	return func() tea.Msg {
		_, err := actions.Logout(context.Background())
		return messages.LogoutResultMsg{Err: err}
	}
}

// Update handles all messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		contentHeight := msg.Height - 1 // Reserve 1 line for status bar.
		a.profile.SetSize(msg.Width, contentHeight)
		a.activity.SetSize(msg.Width, contentHeight)
		a.statusBar.SetSize(msg.Width)
		if a.activeView == ViewLogin {
			a.loginForm.SetSize(msg.Width, contentHeight)
		}
		return a, nil

	case tea.KeyMsg:
		if a.activeView != ViewLogin {
			switch {
			case key.Matches(msg, Keys.Quit):
				return a, tea.Quit
			case key.Matches(msg, Keys.Back):
				return a, a.goBack()
			case key.Matches(msg, Keys.Login):
				if !a.sanctum.Actions.IsAuthenticated() {
					a.openLogin()
				}
				return a, nil
			case key.Matches(msg, Keys.Logout):
				a.statusBar.SetStatus("Logging out...", false)
				return a, a.logout()
			case key.Matches(msg, Keys.Refresh):
				a.activeView = ViewProfile
				return a, a.profile.Refresh()
			case key.Matches(msg, Keys.Activity):
				return a.Update(messages.OpenActivityMsg{})
			case key.Matches(msg, Keys.Profile):
				return a.Update(messages.OpenProfileMsg{})
			}
		} else {
			// Esc in the login form goes back.
			if key.Matches(msg, Keys.Back) {
				return a, a.goBack()
			}
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
		}

	case messages.OpenLoginMsg:
		a.openLogin()
		return a, nil

	case messages.OpenProfileMsg:
		a.pushView(ViewProfile)
		return a, nil

	case messages.OpenActivityMsg:
		a.pushView(ViewActivity)
		a.activity.Load()
		return a, nil

	case messages.GoBackMsg:
		return a, a.goBack()

	case messages.SessionRestoredMsg:
		a.syncSession()
		if msg.Err != nil && !errors.Is(msg.Err, session.ErrNoXSRFToken) {
			a.statusBar.SetStatus("Session expired", true)
		}

	case messages.LoginResultMsg:
		if msg.Err == nil {
			a.syncSession()
			a.statusBar.SetStatus("Logged in", false)
			a.loginForm, _ = a.loginForm.Update(msg)
			return a, a.goBack()
		}
		// Let login form handle the error.

	case messages.LogoutResultMsg:
		a.syncSession()
		if msg.Err != nil {
			a.statusBar.SetStatus("Logout failed: "+render.ErrorText(msg.Err, 0), true)
		} else {
			a.statusBar.SetStatus("Logged out", false)
		}

	case messages.UserLoadedMsg:
		a.syncSession()

	case messages.SessionEventMsg:
		a.statusBar.SetEventCount(msg.Total)
		a.syncSession()
		if _, ok := msg.Event.(events.LoggedOut); ok {
			a.banner = ""
		} else if e, ok := msg.Event.(events.UserInitialized); ok {
			a.banner = "Welcome " + store.User(e.User).DisplayName()
		}
		if a.activeView == ViewActivity {
			a.activity.Load()
		}

	case messages.StatusMsg:
		a.statusBar.SetStatus(msg.Text, msg.IsError)
	}

	// Route to active view.
	var cmd tea.Cmd
	switch a.activeView {
	case ViewProfile:
		a.profile, cmd = a.profile.Update(msg)
		cmds = append(cmds, cmd)
	case ViewLogin:
		a.loginForm, cmd = a.loginForm.Update(msg)
		cmds = append(cmds, cmd)
	case ViewActivity:
		a.activity, cmd = a.activity.Update(msg)
		cmds = append(cmds, cmd)
	}

	a.statusBar, cmd = a.statusBar.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// syncSession copies the session state into the status bar.
func (a *App) syncSession() {
	a.statusBar.SetPhase(a.sanctum.Actions.Phase())
	a.statusBar.SetUser(a.sanctum.Actions.User().DisplayName())
}

// View renders the application.
func (a *App) View() string {
	var content string
	switch a.activeView {
	case ViewProfile:
		content = a.profile.View()
	case ViewLogin:
		content = a.loginForm.View()
	case ViewActivity:
		content = a.activity.View()
	}

	if a.banner != "" && a.activeView != ViewLogin {
		content = BannerStyle.Render(a.banner) + "\n" + content
	}

	return lipgloss.JoinVertical(lipgloss.Left, ContentStyle.Render(content), a.statusBar.View())
}

func (a *App) openLogin() {
	a.pushView(ViewLogin)
	a.loginForm = login.New(a.sanctum.Actions, a.host)
	a.loginForm.SetSize(a.width, a.height-1)
}

func (a *App) pushView(v ViewType) {
	a.previousViews = append(a.previousViews, a.activeView)
	a.activeView = v
}

func (a *App) goBack() tea.Cmd {
	if len(a.previousViews) > 0 {
		a.activeView = a.previousViews[len(a.previousViews)-1]
		a.previousViews = a.previousViews[:len(a.previousViews)-1]
	}
	return nil
}
