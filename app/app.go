// Package app bundles the long lived dependencies shared by the HTTP handlers.
package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/mbolis/parish-forms/config"
	"github.com/mbolis/parish-forms/forms"
	"github.com/mbolis/parish-forms/upload"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config

	Forms    *forms.Engine
	Uploader upload.Uploader
}
