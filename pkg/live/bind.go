package live

import (
	json "github.com/json-iterator/go"
	"github.com/snapgram/cli/pkg/api"
	"github.com/snapgram/cli/pkg/logger"
)

// Merger receives post changes. *feed.Synchronizer and *feed.List
// satisfy it.
type Merger interface {
	ApplyUpdate(post api.Post) bool
	ApplyDelete(id int64) bool
}

// PostDeleted is the payload of a post_deleted frame.
type PostDeleted struct {
	ID int64 `json:"id"`
}

// Bind routes post_updated and post_deleted frames into m. The returned
// function detaches it.
func Bind(c *Client, m Merger) (unbind func()) {
	offUpdate := c.On(MessageTypePostUpdated, func(msg Message) {
		var post api.Post
		if err := json.Unmarshal(msg.Payload, &post); err != nil {
			logger.Warn("Bad post_updated payload", "error", err)
			return
		}
		if m.ApplyUpdate(post) {
			logger.Debug("Applied live post update", "post_id", post.ID)
		}
	})

	offDelete := c.On(MessageTypePostDeleted, func(msg Message) {
		var del PostDeleted
		if err := json.Unmarshal(msg.Payload, &del); err != nil {
			logger.Warn("Bad post_deleted payload", "error", err)
			return
		}
		if m.ApplyDelete(del.ID) {
			logger.Debug("Applied live post delete", "post_id", del.ID)
		}
	})

	return func() {
		offUpdate()
		offDelete()
	}
}
