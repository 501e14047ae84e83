// Package logger records shell activity as newline delimited JSON events.
package logger
