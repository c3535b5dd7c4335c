package controllers

import (
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/AXI0MH1VE/State-Inverant/models"
	"github.com/AXI0MH1VE/State-Inverant/userctx"
)

const flashKey = "flash"

// setFlash stores a message to show on the next rendered page
func setFlash(r *http.Request, kind, message string) {
	sess := session.GetSession(r)
	sess.Set(flashKey, &models.FlashMessage{Type: kind, Message: message})
}

// popFlash returns and clears the pending flash message
func popFlash(r *http.Request) *models.FlashMessage {
	sess := session.GetSession(r)
	flash, ok := sess.Get(flashKey).(*models.FlashMessage)
	if !ok {
		return nil
	}
	sess.Delete(flashKey)
	return flash
}

// sessionID identifies the browser session owning a command bar
func sessionID(r *http.Request) string {
	return session.GetSession(r).ID()
}

// pageBuilder fills the data every page shares
type pageBuilder struct {
	version     string
	authEnabled bool
}

func (p *pageBuilder) build(r *http.Request, title, currentPage string, data interface{}) models.PageData {
	return models.PageData{
		AppName:      models.AppName,
		Title:        title,
		CurrentPage:  currentPage,
		Version:      p.version,
		UserName:     userctx.GetDisplayName(r.Context()),
		AuthEnabled:  p.authEnabled,
		FlashMessage: popFlash(r),
		NavLinks:     models.NavLinks,
		Data:         data,
	}
}
