package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS robots (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    sn          TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    base_url    TEXT NOT NULL DEFAULT '',
    floor_id    TEXT NOT NULL DEFAULT '',
    enabled     INTEGER NOT NULL DEFAULT 1,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS points (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    floor_id    TEXT NOT NULL,
    point_id    TEXT NOT NULL,
    x           REAL NOT NULL DEFAULT 0,
    y           REAL NOT NULL DEFAULT 0,
    ori         REAL NOT NULL DEFAULT 0,
    synced_at   TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    UNIQUE(floor_id, point_id)
);

CREATE TABLE IF NOT EXISTS missions (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    robot_sn      TEXT NOT NULL,
    template_id   TEXT NOT NULL DEFAULT '',
    floor_id      TEXT NOT NULL DEFAULT '',
    shelf_id      TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL DEFAULT 'pending',
    current_step  INTEGER NOT NULL DEFAULT 0,
    error_detail  TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    completed_at  TEXT
);
CREATE INDEX IF NOT EXISTS idx_missions_status ON missions(status);
CREATE INDEX IF NOT EXISTS idx_missions_robot ON missions(robot_sn);

CREATE TABLE IF NOT EXISTS mission_steps (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    mission_id     TEXT NOT NULL REFERENCES missions(id) ON DELETE CASCADE,
    seq            INTEGER NOT NULL,
    action         TEXT NOT NULL,
    point_id       TEXT NOT NULL DEFAULT '',
    target_x       REAL NOT NULL DEFAULT 0,
    target_y       REAL NOT NULL DEFAULT 0,
    target_ori     REAL NOT NULL DEFAULT 0,
    rack_area_id   TEXT NOT NULL DEFAULT '',
    completed      INTEGER NOT NULL DEFAULT 0,
    retry_count    INTEGER NOT NULL DEFAULT 0,
    move_id        TEXT NOT NULL DEFAULT '',
    robot_response TEXT NOT NULL DEFAULT '',
    error_message  TEXT NOT NULL DEFAULT '',
    UNIQUE(mission_id, seq)
);

CREATE TABLE IF NOT EXISTS mission_history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    mission_id  TEXT NOT NULL,
    status      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);
CREATE INDEX IF NOT EXISTS idx_mission_history ON mission_history(mission_id);

CREATE TABLE IF NOT EXISTS occupancy (
    location    TEXT PRIMARY KEY,
    floor_id    TEXT NOT NULL DEFAULT '',
    bin_present INTEGER NOT NULL DEFAULT 0,
    source      TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL DEFAULT (datetime('now','localtime'))
);

CREATE TABLE IF NOT EXISTS outbox (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    topic       TEXT NOT NULL,
    payload     BLOB NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT (datetime('now','localtime')),
    sent_at     TEXT
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`
