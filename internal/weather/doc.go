// Package weather fetches the current-conditions payload from OpenWeatherMap
// and passes it through untouched. The coordinator never interprets the
// payload; clients render it themselves.
//
// A canned-data mode serves a fixed payload without hitting the API, for
// development and for running without an API key.
package weather
