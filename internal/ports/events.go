package ports

type EventBus interface {
	Publish(topic string, payload []byte)
	Subscribe() (ch <-chan Event, cancel func())
}

type Event struct {
	Topic   string
	Payload []byte
}

// Topics publiés par le manager d'entités (listeners).
const (
	TopicEntityInserted = "entity.inserted"
	TopicEntityUpdated  = "entity.updated"
	TopicEntityDeleted  = "entity.deleted"
)

// EntityEvent est le payload JSON des topics entity.*.
type EntityEvent struct {
	OID        string   `json:"oid"`
	Definition string   `json:"definition"`
	Version    int64    `json:"version,omitempty"`
	Properties []string `json:"properties,omitempty"`
	Purge      bool     `json:"purge,omitempty"`
}
