package store

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS robots (
    id          BIGSERIAL PRIMARY KEY,
    sn          TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    base_url    TEXT NOT NULL DEFAULT '',
    floor_id    TEXT NOT NULL DEFAULT '',
    enabled     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS points (
    id          BIGSERIAL PRIMARY KEY,
    floor_id    TEXT NOT NULL,
    point_id    TEXT NOT NULL,
    x           DOUBLE PRECISION NOT NULL DEFAULT 0,
    y           DOUBLE PRECISION NOT NULL DEFAULT 0,
    ori         DOUBLE PRECISION NOT NULL DEFAULT 0,
    synced_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
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
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at  TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_missions_status ON missions(status);
CREATE INDEX IF NOT EXISTS idx_missions_robot ON missions(robot_sn);

CREATE TABLE IF NOT EXISTS mission_steps (
    id             BIGSERIAL PRIMARY KEY,
    mission_id     TEXT NOT NULL REFERENCES missions(id) ON DELETE CASCADE,
    seq            INTEGER NOT NULL,
    action         TEXT NOT NULL,
    point_id       TEXT NOT NULL DEFAULT '',
    target_x       DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_y       DOUBLE PRECISION NOT NULL DEFAULT 0,
    target_ori     DOUBLE PRECISION NOT NULL DEFAULT 0,
    rack_area_id   TEXT NOT NULL DEFAULT '',
    completed      BOOLEAN NOT NULL DEFAULT FALSE,
    retry_count    INTEGER NOT NULL DEFAULT 0,
    move_id        TEXT NOT NULL DEFAULT '',
    robot_response TEXT NOT NULL DEFAULT '',
    error_message  TEXT NOT NULL DEFAULT '',
    UNIQUE(mission_id, seq)
);

CREATE TABLE IF NOT EXISTS mission_history (
    id          BIGSERIAL PRIMARY KEY,
    mission_id  TEXT NOT NULL,
    status      TEXT NOT NULL,
    detail      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_mission_history ON mission_history(mission_id);

CREATE TABLE IF NOT EXISTS occupancy (
    location    TEXT PRIMARY KEY,
    floor_id    TEXT NOT NULL DEFAULT '',
    bin_present BOOLEAN NOT NULL DEFAULT FALSE,
    source      TEXT NOT NULL DEFAULT '',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS outbox (
    id          BIGSERIAL PRIMARY KEY,
    topic       TEXT NOT NULL,
    payload     BYTEA NOT NULL,
    msg_type    TEXT NOT NULL DEFAULT '',
    retries     INTEGER NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    sent_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at) WHERE sent_at IS NULL;
`
