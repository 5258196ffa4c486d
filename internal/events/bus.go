// Package events is the typed bus that forwards domain events from one
// collaborator to every collaborator that reacts to them.
//
// Fan-out lists are fixed when the bus is built. Subscribers for an event
// always run in declaration order, and a subscriber whose collaborator or
// method is missing is skipped instead of failing the fan-out.
package events

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/abhisek/smartroom/internal/recovery"
)

// Reporter receives faults raised by subscribers.
type Reporter interface {
	Handle(err *recovery.IntegrationError) recovery.Result
}

// Subscriber is one entry of a fan-out list.
type Subscriber struct {
	// Name is "<collaborator>.<method>", used in logs and the route table.
	Name string
	// Present is false when the collaborator or the capability is missing.
	// It is decided when the table is built.
	Present bool
	// Kind tags faults raised by this subscriber.
	Kind recovery.Kind
	Call func(ctx context.Context, ev Event) error
}

// On builds a typed subscriber. The call is skipped for events of another
// payload type.
func On[T Event](name string, present bool, kind recovery.Kind, fn func(ctx context.Context, ev T) error) Subscriber {
	return Subscriber{
		Name:    name,
		Present: present && fn != nil,
		Kind:    kind,
		Call: func(ctx context.Context, ev Event) error {
			typed, ok := ev.(T)
			if !ok {
				return eris.Errorf("subscriber %s: unexpected payload %T", name, ev)
			}
			return fn(ctx, typed)
		},
	}
}

// Table maps each event to its ordered fan-out list.
type Table map[Name][]Subscriber

// Delivery summarizes one Publish call.
type Delivery struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Bus fans events out according to a fixed Table.
type Bus struct {
	routes   Table
	reporter Reporter
	log      zerolog.Logger
}

// NewBus creates a bus over routes. reporter may be nil, in which case
// subscriber faults are only logged.
func NewBus(routes Table, reporter Reporter, log zerolog.Logger) *Bus {
	copied := make(Table, len(routes))
	for name, subs := range routes {
		copied[name] = append([]Subscriber(nil), subs...)
	}
	return &Bus{
		routes:   copied,
		reporter: reporter,
		log:      log.With().Str("component", "events").Logger(),
	}
}

// Publish delivers ev to every present subscriber in order. A failing
// subscriber is reported and the fan-out continues.
func (b *Bus) Publish(ctx context.Context, ev Event) Delivery {
	var d Delivery
	if ev == nil {
		return d
	}
	name := ev.EventName()
	for _, sub := range b.routes[name] {
		if !sub.Present {
			d.Skipped++
			b.log.Debug().Str("event", string(name)).Str("subscriber", sub.Name).Msg("subscriber not available, skipped")
			continue
		}
		if err := b.call(ctx, sub, ev); err != nil {
			d.Failed++
			b.fault(sub, name, err)
			continue
		}
		d.Delivered++
	}
	return d
}

// Subscribers returns the fan-out list for name, present or not.
func (b *Bus) Subscribers(name Name) []string {
	subs := b.routes[name]
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.Name
	}
	return names
}

func (b *Bus) call(ctx context.Context, sub Subscriber, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = eris.New(fmt.Sprintf("panic: %v", p))
		}
	}()
	return sub.Call(ctx, ev)
}

func (b *Bus) fault(sub Subscriber, name Name, err error) {
	b.log.Warn().Err(err).Str("event", string(name)).Str("subscriber", sub.Name).Msg("subscriber failed")
	if b.reporter == nil {
		return
	}
	kind := sub.Kind
	if kind == "" {
		kind = recovery.GlobalError
	}
	b.reporter.Handle(recovery.NewError(kind, sub.Name, eris.Wrapf(err, "handling %s", name)))
}

// Publisher is what collaborators publish through. Collaborators never hold
// references to each other, only to a Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev Event) Delivery
}

// Discard is a Publisher that drops everything. Collaborators use it until
// the bus is wired.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) Delivery { return Delivery{} }
