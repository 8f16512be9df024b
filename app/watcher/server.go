package watcher

import (
	"net/http"

	"github.com/canopy-network/stakewatch/app/watcher/controller"
	"github.com/canopy-network/stakewatch/app/watcher/types"
)

// NewServer builds the watcher's HTTP server and stores it on the app.
func NewServer(app *types.App) error {
	c := controller.NewController(app)

	router, routerErr := c.NewRouter()
	if routerErr != nil {
		return routerErr
	}

	app.Server = &http.Server{Addr: app.Config.Addr, Handler: controller.WithCORS(router)}

	return nil
}
