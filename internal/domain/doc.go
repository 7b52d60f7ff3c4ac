// Package domain models groundwater monitoring stations and their water-level
// readings, and holds the pure correlation and alerting rules applied to them.
//
// # Data Source
//
// Two static JSON documents are loaded once per start (or explicit reload):
//
//	stations.json    [{"id", "name", "district", "state", "lat", "lon"}, ...]
//	waterlevels.json [{"station_id", "timestamp", "water_level_m"}, ...]
//
// Earlier revisions of these documents used "lng" and "water_level". Those
// names are not accepted: a record carrying them is missing a required field
// and is skipped. See [ParseStations] and [ParseReadings].
//
// # Identifiers
//
// Station ids may be written as JSON strings or numbers. Numbers are normalized
// to their literal decimal text, so 1 and "1" name the same station. Readings
// reference stations by id with no referential integrity: a reading whose
// station is absent from the stations document is kept but is unreachable
// through selection.
//
// # Timestamps
//
// Either an RFC 3339 string ("2024-06-01T06:00:00Z", zone optional, date-only
// allowed) or an epoch number in seconds (fractions allowed). All timestamps are
// normalized to UTC instants so readings are totally ordered.
//
// # Alerting
//
// A station's series is in alert ([AlertLow]) when any reading in it is
// strictly below the configured threshold in meters (default 11 m). This is a
// worst case over the loaded history, not the latest reading. An empty series
// is [AlertNormal].
package domain
