// Package domain models wildfire risk estimation from daily weather
// observations.
//
// # Feature Schema
//
// The trained classifier consumes a fixed, ordered 14-field row: the eleven
// raw observation fields followed by three derived ones. Field names and
// order must match the training schema exactly; the classifier rejects rows
// that differ. Derived fields:
//
//	temp_range_c      = max_temp_c - min_temp_c
//	heat_index        = avg_temp_c * (1 + 0.01 * avg_humidity)
//	drought_indicator = 1 if precip_mm < 5 and avg_temp_c > 25, else 0
//
// Units follow the historical NOAA daily-summary export the model was trained
// on, which is why the row mixes systems: temperatures and degree-days in °C,
// dew point in °F, wind in knots, pressure in millibars, visibility in km.
//
// # Estimation Paths
//
// Estimation is polymorphic over two variants selected once per request by
// model availability. The model-backed path projects the row onto the trained
// schema and takes the positive-class probability. The rule-based path is a
// deterministic heuristic over four signals (temperature, humidity,
// precipitation, wind) with strict band boundaries; a value exactly at a
// boundary takes the lower band. Both paths round to 4 decimal places; the
// rule-based path additionally caps at 0.99 and never fails.
//
// # Narrative Recovery
//
// Risk narratives come from a language model that is only informally
// instructed to emit JSON and regularly wraps it in markdown fences or
// surrounding prose. [ParseNarrative] is the pure recovery chain:
// strip-fences → direct parse → first-'{'-to-last-'}' extraction → failure.
// Callers never surface a failure to the client; each of the three degraded
// outcomes (analyst unconfigured, analyst call failed, output unparseable)
// has its own fixed fallback body.
package domain
