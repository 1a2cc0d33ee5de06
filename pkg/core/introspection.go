package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Collection     string `json:"collection"`
	RepositoryType string `json:"repository_type"`
	Subscribers    int    `json:"subscribers"`
}

func repositoryType(repo any) string {
	if comp, ok := repo.(introspection.Component); ok {
		return comp.ComponentType()
	}
	if repo == nil {
		return "unknown"
	}
	return "repository"
}

func (o *serviceOptions) subscribers() int {
	if o.broker == nil {
		return 0
	}
	return o.broker.Subscribers()
}

// State implements introspection.Introspectable.
func (s *TaskService) State() any {
	return ServiceState{
		Collection:     TasksCollection,
		RepositoryType: repositoryType(s.repo),
		Subscribers:    s.opts.subscribers(),
	}
}

// ComponentType implements introspection.Component.
func (s *TaskService) ComponentType() string {
	return "task-service"
}

// State implements introspection.Introspectable.
func (s *NoteService) State() any {
	return ServiceState{
		Collection:     NotesCollection,
		RepositoryType: repositoryType(s.repo),
		Subscribers:    s.opts.subscribers(),
	}
}

// ComponentType implements introspection.Component.
func (s *NoteService) ComponentType() string {
	return "note-service"
}

// BrokerState exposes the event broker for observability.
type BrokerState struct {
	Subscribers int    `json:"subscribers"`
	Buffer      int    `json:"buffer"`
	Dropped     uint64 `json:"dropped"`
	Watchers    int64  `json:"watchers"`
}

// State implements introspection.Introspectable.
func (b *Broker) State() any {
	return BrokerState{
		Subscribers: b.Subscribers(),
		Buffer:      b.buffer,
		Dropped:     b.Dropped(),
		Watchers:    b.watchers.Load(),
	}
}

// ComponentType implements introspection.Component.
func (b *Broker) ComponentType() string {
	return "broker"
}

var (
	_ introspection.Introspectable = (*TaskService)(nil)
	_ introspection.Component      = (*TaskService)(nil)
	_ introspection.Introspectable = (*NoteService)(nil)
	_ introspection.Component      = (*NoteService)(nil)
	_ introspection.Introspectable = (*Broker)(nil)
	_ introspection.Component      = (*Broker)(nil)
)
