// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package mqtt bridges a projector to an MQTT broker.
//
// Commands arrive on <prefix>/power/set, <prefix>/source/set and
// <prefix>/key/set as plain text ("on", "hdmi2", "menu"). After each
// successful command the bridge publishes the projector status as retained
// JSON on <prefix>/status; failures go to <prefix>/error. A message on
// <prefix>/status/get publishes the status without changing anything.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/rs/zerolog"
)

// Projector is the part of *projector.Controller the bridge drives
type Projector interface {
	Status() (projector.Status, error)
	SetPower(target escvp.Power) error
	SetSource(target escvp.Source) error
	SendKey(key escvp.Key) error
}

// Publisher sends a message to the broker. *Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

// Subscriber registers topic handlers. *Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, handler MessageHandler) error
}

// Bridge maps MQTT messages to projector operations
type Bridge struct {
	projector Projector
	pub       Publisher
	topics    Topics
	log       zerolog.Logger
}

type errorMessage struct {
	Topic     string `json:"topic"`
	Payload   string `json:"payload"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// NewBridge creates a bridge publishing under prefix
func NewBridge(p Projector, pub Publisher, prefix string, log zerolog.Logger) *Bridge {
	return &Bridge{
		projector: p,
		pub:       pub,
		topics:    NewTopics(prefix),
		log:       log,
	}
}

// Topics returns the topic layout in use
func (b *Bridge) Topics() Topics {
	return b.topics
}

// Start subscribes to every command topic
func (b *Bridge) Start(sub Subscriber) error {
	handlers := map[string]MessageHandler{
		b.topics.PowerSet():  b.handlePowerSet,
		b.topics.SourceSet(): b.handleSourceSet,
		b.topics.KeySet():    b.handleKeySet,
		b.topics.StatusGet(): b.handleStatusGet,
	}
	for topic, handler := range handlers {
		if err := sub.Subscribe(topic, handler); err != nil {
			return err
		}
		b.log.Debug().Str("topic", topic).Msg("subscribed")
	}
	return nil
}

// PublishStatus queries the projector and publishes the retained status.
// A failed query is published on the error topic instead.
func (b *Bridge) PublishStatus() error {
	st, err := b.projector.Status()
	if err != nil {
		b.publishError(b.topics.StatusGet(), nil, err)
		return err
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	return b.pub.Publish(b.topics.Status(), payload, true)
}

func (b *Bridge) handlePowerSet(topic string, payload []byte) error {
	target, err := escvp.ParsePower(textPayload(payload))
	if err != nil {
		return b.reject(topic, payload, err)
	}
	return b.run(topic, payload, func() error { return b.projector.SetPower(target) })
}

func (b *Bridge) handleSourceSet(topic string, payload []byte) error {
	target, err := escvp.ParseSource(textPayload(payload))
	if err != nil {
		return b.reject(topic, payload, err)
	}
	return b.run(topic, payload, func() error { return b.projector.SetSource(target) })
}

func (b *Bridge) handleKeySet(topic string, payload []byte) error {
	key, err := escvp.ParseKey(textPayload(payload))
	if err != nil {
		return b.reject(topic, payload, err)
	}
	return b.run(topic, payload, func() error { return b.projector.SendKey(key) })
}

func (b *Bridge) handleStatusGet(_ string, _ []byte) error {
	return b.PublishStatus()
}

// run executes a projector command and follows it with a status publish
func (b *Bridge) run(topic string, payload []byte, command func() error) error {
	if err := command(); err != nil {
		b.publishError(topic, payload, err)
		return err
	}
	return b.PublishStatus()
}

func (b *Bridge) reject(topic string, payload []byte, err error) error {
	err = fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	b.publishError(topic, payload, err)
	return err
}

func (b *Bridge) publishError(topic string, payload []byte, cause error) {
	msg, err := json.Marshal(errorMessage{
		Topic:     topic,
		Payload:   string(payload),
		Error:     cause.Error(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	if err := b.pub.Publish(b.topics.Error(), msg, false); err != nil {
		b.log.Warn().Err(err).Msg("failed to publish error")
	}
}

// textPayload accepts bare words and JSON strings alike
func textPayload(payload []byte) string {
	return strings.Trim(string(payload), " \t\r\n\"")
}
