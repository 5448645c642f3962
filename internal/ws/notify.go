package ws

import "github.com/homebake/api/internal/catalog"

// CatalogNotifier returns a catalog subscriber that republishes every change
// to the catalog room. The event type is the change type.
func CatalogNotifier(hub *Hub) func(catalog.Change) {
	return func(c catalog.Change) {
		if err := hub.Publish(TopicCatalog, c.Type, c); err != nil {
			hub.log.WithError(err).Error("publish catalog change")
		}
	}
}
