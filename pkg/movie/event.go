package movie

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Action is the kind of change a movie event reports
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Topic returns the topic events of this action are published to, e.g. "movie-created".
func (a Action) Topic() string {
	return "movie-" + string(a)
}

// Topics lists every movie event topic
var Topics = []string{
	ActionCreated.Topic(),
	ActionUpdated.Topic(),
	ActionDeleted.Topic(),
}

// Event represents a movie change notification
type Event struct {
	Topic    string         `json:"topic"`
	Messages []EventMessage `json:"messages"`
}

// EventMessage is a single keyed message of an event. Key is the movie ID and Value the serialized movie.
type EventMessage struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// NewEvent builds the event reporting that action happened to m.
func NewEvent(action Action, m Movie) (Event, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return Event{}, fmt.Errorf("failed to json.Marshal: %w", err)
	}

	return Event{
		Topic: action.Topic(),
		Messages: []EventMessage{{
			Key:   strconv.Itoa(m.ID),
			Value: string(b),
		}},
	}, nil
}

// ValidTopic reports whether topic is one of the movie event topics.
func ValidTopic(topic string) bool {
	for _, t := range Topics {
		if t == topic {
			return true
		}
	}
	return false
}
