package messaging

import (
	"log"

	"haulcore/mission"
	"haulcore/store"
)

// MissionService is the slice of the mission manager the consumer needs.
type MissionService interface {
	Submit(req mission.SubmitRequest) (*store.Mission, error)
	Cancel(missionID, reason string) error
}

// OccupancyService handles manual occupancy overrides.
type OccupancyService interface {
	Clear(location, reason string) error
}

// Consumer subscribes to the commands topic and routes decoded messages
// to the mission manager and occupancy tracker. Replies publish directly
// while the broker is up and fall back to the outbox when it is not.
type Consumer struct {
	client    *Client
	db        *store.DB
	topic     string
	events    string
	siteID    string
	missions  MissionService
	occupancy OccupancyService
}

func NewConsumer(client *Client, db *store.DB, topic, eventsTopic, siteID string, missions MissionService, occupancy OccupancyService) *Consumer {
	return &Consumer{
		client:    client,
		db:        db,
		topic:     topic,
		events:    eventsTopic,
		siteID:    siteID,
		missions:  missions,
		occupancy: occupancy,
	}
}

func (c *Consumer) Start() error {
	return c.client.Subscribe(c.topic, c.handleMessage)
}

func (c *Consumer) handleMessage(_ string, payload []byte) {
	env, err := DecodeEnvelope(payload)
	if err != nil {
		log.Printf("consumer: decode error: %v", err)
		return
	}

	switch p := env.Payload.(type) {
	case MissionRequest:
		c.handleMissionRequest(p)
	case MissionCancel:
		log.Printf("consumer: cancel request for mission %s", p.MissionID)
		if err := c.missions.Cancel(p.MissionID, p.Reason); err != nil {
			log.Printf("consumer: cancel mission %s: %v", p.MissionID, err)
		}
	case OccupancyClear:
		log.Printf("consumer: occupancy clear for %s", p.Location)
		if err := c.occupancy.Clear(p.Location, p.Reason); err != nil {
			log.Printf("consumer: clear occupancy %s: %v", p.Location, err)
		}
	default:
		log.Printf("consumer: unhandled payload type: %T", p)
	}
}

func (c *Consumer) handleMissionRequest(req MissionRequest) {
	log.Printf("consumer: mission request %s: template=%s robot=%s", req.RequestUUID, req.TemplateID, req.RobotSN)

	m, err := c.missions.Submit(mission.SubmitRequest{
		TemplateID:  req.TemplateID,
		AdhocPoints: req.Points,
		RobotSN:     req.RobotSN,
		FloorID:     req.FloorID,
		ShelfID:     req.ShelfID,
		TargetShelf: req.TargetShelfID,
		Name:        req.Name,
	})
	if err != nil {
		c.reply(TypeMissionRejected, MissionRejected{RequestUUID: req.RequestUUID, Reason: err.Error()})
		return
	}
	c.reply(TypeMissionAccepted, MissionAccepted{RequestUUID: req.RequestUUID, MissionID: m.ID, RobotSN: m.RobotSN})
}

func (c *Consumer) reply(msgType string, payload any) {
	env := NewEnvelope(msgType, c.siteID, payload)
	if c.client.IsConnected() {
		err := c.client.PublishEnvelope(c.events, env)
		if err == nil {
			return
		}
		log.Printf("consumer: publish %s reply: %v, queueing", msgType, err)
	}
	data, err := env.Encode()
	if err != nil {
		log.Printf("consumer: encode %s reply: %v", msgType, err)
		return
	}
	if err := c.db.EnqueueOutbox(c.events, data, msgType); err != nil {
		log.Printf("consumer: enqueue %s reply: %v", msgType, err)
	}
}
