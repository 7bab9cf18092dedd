package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/centrifugal/centrifuge"
	"github.com/ogero/movies-api/internal/common"
	"github.com/ogero/movies-api/pkg/movie"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// WebsocketPublisher broadcasts movie events to websocket clients subscribed to a single channel.
type WebsocketPublisher struct {
	channel          string
	node             *centrifuge.Node
	websocketHandler *centrifuge.WebsocketHandler
}

// NewWebsocketPublisher creates and runs a centrifuge node whose clients may only subscribe to channel.
func NewWebsocketPublisher(channel string) (*WebsocketPublisher, error) {
	node, err := centrifuge.New(centrifuge.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to centrifuge.New: %w", err)
	}

	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		return centrifuge.ConnectReply{}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		client.OnSubscribe(func(e centrifuge.SubscribeEvent, cb centrifuge.SubscribeCallback) {
			if e.Channel != channel {
				cb(centrifuge.SubscribeReply{}, centrifuge.ErrorPermissionDenied)
				return
			}

			cb(centrifuge.SubscribeReply{
				Options: centrifuge.SubscribeOptions{},
			}, nil)
		})
	})

	if err := node.Run(); err != nil {
		return nil, fmt.Errorf("failed to centrifuge.Node.Run: %w", err)
	}

	return &WebsocketPublisher{
		channel: channel,
		node:    node,
		websocketHandler: centrifuge.NewWebsocketHandler(node, centrifuge.WebsocketConfig{
			ReadBufferSize:     1024,
			UseWriteBufferPool: true,
		}),
	}, nil
}

// Publish broadcasts event as JSON to the channel.
func (p *WebsocketPublisher) Publish(ctx context.Context, event movie.Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to json.Marshal: %w", err)
	}

	result := "ok"
	_, err = p.node.Publish(p.channel, b)
	if err != nil {
		result = "error"
	}
	common.EventsPublishedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("transport", "websocket"),
		attribute.String("topic", event.Topic),
		attribute.String("result", result),
	))
	if err != nil {
		return fmt.Errorf("failed to centrifuge.Node.Publish: %w", err)
	}

	return nil
}

// ServeHTTP handles incoming HTTP requests via a websocket handler
func (p *WebsocketPublisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	newCtx := centrifuge.SetCredentials(ctx, &centrifuge.Credentials{})
	r = r.WithContext(newCtx)

	p.websocketHandler.ServeHTTP(w, r)
}

// Shutdown stops the centrifuge node.
func (p *WebsocketPublisher) Shutdown(ctx context.Context) error {
	return p.node.Shutdown(ctx)
}
