// Package logging provides structured logging built on zap.
//
// Development mode uses colorized console output with debug level;
// production mode emits JSON at info level.
package logging
