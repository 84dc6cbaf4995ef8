package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/verbamind/verbamind/internal/engine"
	"github.com/verbamind/verbamind/pkg/utils"
)

type GamesHandler struct {
	catalog *engine.Catalog
}

func NewGamesHandler(catalog *engine.Catalog) *GamesHandler {
	return &GamesHandler{catalog: catalog}
}

type gameListing struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShortDescription string          `json:"short_description"`
	SupportedModes   []engine.Mode   `json:"supported_modes"`
	UISchema         engine.UISchema `json:"ui_schema"`
}

func listing(p engine.Plugin) gameListing {
	return gameListing{
		ID:               p.ID(),
		Name:             p.Name(),
		ShortDescription: p.ShortDescription(),
		SupportedModes:   p.SupportedModes(),
		UISchema:         p.UISchema(),
	}
}

// List returns the full catalog, optionally filtered by mode.
func (h *GamesHandler) List(c *gin.Context) {
	var plugins []engine.Plugin
	if mode := c.Query("mode"); mode != "" {
		if !engine.ValidMode(engine.Mode(mode)) {
			utils.SendValidationError(c, "Unknown mode", mode)
			return
		}
		plugins = h.catalog.GetByMode(engine.Mode(mode))
	} else {
		plugins = h.catalog.GetAll()
	}

	listings := make([]gameListing, len(plugins))
	for i, p := range plugins {
		listings[i] = listing(p)
	}
	utils.SendSuccess(c, listings)
}

// Get returns one catalog entry.
func (h *GamesHandler) Get(c *gin.Context) {
	plugin, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		utils.SendAppError(c, utils.AsAppError(err))
		return
	}
	utils.SendSuccess(c, listing(plugin))
}
