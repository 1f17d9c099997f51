package data

const SQLCreate = `
PRAGMA encoding = 'UTF-8';

CREATE TABLE IF NOT EXISTS castings
(
    casting    TEXT PRIMARY KEY NOT NULL,
    years      TEXT             NOT NULL,
    cid        TEXT             NOT NULL,
    low_power  TEXT             NOT NULL,
    high_power TEXT             NOT NULL,
    main_caps  TEXT             NOT NULL,
    comments   TEXT
);
`
