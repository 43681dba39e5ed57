package engine

import (
	"log"
	"time"

	"haulcore/config"
	"haulcore/messaging"
	"haulcore/mission"
	"haulcore/occupancy"
	"haulcore/points"
	"haulcore/store"
	"haulcore/workflow"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig  *config.Config
	ConfigPath string
	DB         *store.DB
	Registry   *points.Registry
	Catalog    *workflow.Catalog
	Pool       *mission.Pool
	Tracker    *occupancy.Tracker
	MsgClient  *messaging.Client
	LogFunc    LogFunc
	Debug      bool
}

// Engine ties the packages together: it owns the event bus, builds the
// mission manager with its emitter adapters, forwards events to the
// outbox, and watches connection health.
type Engine struct {
	cfg        *config.Config
	configPath string
	db         *store.DB
	registry   *points.Registry
	catalog    *workflow.Catalog
	pool       *mission.Pool
	tracker    *occupancy.Tracker
	msgClient  *messaging.Client
	manager    *mission.Manager
	Events     *EventBus
	logFn      LogFunc
	stopChan   chan struct{}

	robotConnected map[string]bool
	msgConnected   bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	return &Engine{
		cfg:            c.AppConfig,
		configPath:     c.ConfigPath,
		db:             c.DB,
		registry:       c.Registry,
		catalog:        c.Catalog,
		pool:           c.Pool,
		tracker:        c.Tracker,
		msgClient:      c.MsgClient,
		Events:         NewEventBus(),
		logFn:          logFn,
		stopChan:       make(chan struct{}),
		robotConnected: make(map[string]bool),
	}
}

func (e *Engine) Start() {
	e.tracker.SetEmitter(&occupancyEmitter{bus: e.Events})

	e.manager = mission.NewManager(e.db, e.catalog, e.pool, e.tracker, &missionEmitter{bus: e.Events}, mission.Config{
		PollInterval: e.cfg.Mission.PollInterval,
		StepTimeout:  e.cfg.Mission.StepTimeout,
		MaxRetries:   e.cfg.Mission.MaxRetries,
	})

	e.wireEventHandlers()

	if err := e.manager.ResumeActive(); err != nil {
		e.logFn("engine: resume active missions: %v", err)
	}

	e.checkConnectionStatus()
	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	e.manager.Stop()
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                  { return e.db }
func (e *Engine) AppConfig() *config.Config      { return e.cfg }
func (e *Engine) ConfigPath() string             { return e.configPath }
func (e *Engine) Missions() *mission.Manager     { return e.manager }
func (e *Engine) Occupancy() *occupancy.Tracker  { return e.tracker }
func (e *Engine) Registry() *points.Registry     { return e.registry }
func (e *Engine) Catalog() *workflow.Catalog     { return e.catalog }
func (e *Engine) Pool() *mission.Pool            { return e.pool }
func (e *Engine) MsgClient() *messaging.Client   { return e.msgClient }

func (e *Engine) checkConnectionStatus() {
	// Robots
	for _, sn := range e.pool.SNs() {
		client, err := e.pool.ClientFor(sn)
		if err != nil {
			continue
		}
		_, err = client.GetStatus()
		if err == nil {
			if !e.robotConnected[sn] {
				e.robotConnected[sn] = true
				e.Events.Emit(Event{Type: EventRobotConnected, Payload: RobotConnEvent{SN: sn}})
			}
		} else {
			if e.robotConnected[sn] {
				e.robotConnected[sn] = false
				e.Events.Emit(Event{Type: EventRobotDisconnected, Payload: RobotConnEvent{SN: sn}})
			}
		}
	}

	// Messaging
	if e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}

// RefreshPool reloads robot registrations from the database, picking up
// fleet changes made through the admin endpoints.
func (e *Engine) RefreshPool() error {
	robots, err := e.db.ListRobots()
	if err != nil {
		return err
	}
	enabled := make(map[string]bool, len(robots))
	for _, r := range robots {
		if r.Enabled {
			e.pool.Register(r.SN, r.BaseURL)
			enabled[r.SN] = true
		}
	}
	for _, sn := range e.pool.SNs() {
		if !enabled[sn] {
			e.pool.Remove(sn)
		}
	}
	return nil
}
